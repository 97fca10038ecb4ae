package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
	"github.com/labstack/echo/v4"
)

// requireLogin redirects anonymous users to the login page with an
// advisory warning. It reports whether the request may continue.
func (s *Server) requireLogin(c echo.Context) bool {
	if identity(c).IsAuthenticated() {
		return true
	}
	s.warn(c, msgMustLogin)
	return false
}

func (s *Server) handleAddForm(c echo.Context) error {
	if !s.requireLogin(c) {
		return redirect(c, "/login")
	}
	return s.render(c, http.StatusOK, "add-project", View{Title: "Add Project", Warning: s.takeWarning(c)})
}

func (s *Server) handleAdd(c echo.Context) error {
	if !s.requireLogin(c) {
		return redirect(c, "/login")
	}
	ctx := c.Request().Context()

	in, err := projectInput(c)
	if err != nil {
		s.logger.Warn(ctx, "bad project form", "error", err)
		return s.fail(c, msgGeneric, "/add-project")
	}
	img, err := s.imageUpload(c)
	if err != nil {
		s.logger.Warn(ctx, "bad image upload", "error", err)
		return s.fail(c, msgUploadFailed, "/add-project")
	}

	_, err = s.projects.Create(ctx, identity(c), in, img)
	if err != nil {
		return s.projectFailure(c, err, "/add-project")
	}
	return s.succeed(c, msgProjectAdded, "/")
}

func (s *Server) handleEditForm(c echo.Context) error {
	if !s.requireLogin(c) {
		return redirect(c, "/login")
	}
	ctx := c.Request().Context()

	p, err := s.projects.Get(ctx, c.Param("id"))
	if err != nil {
		return s.projectFailure(c, err, "/")
	}
	if !identity(c).Owns(p) {
		return s.fail(c, msgNotOwner, "/")
	}

	return s.render(c, http.StatusOK, "edit-project", View{Title: "Edit Project", Project: p})
}

func (s *Server) handleEdit(c echo.Context) error {
	if !s.requireLogin(c) {
		return redirect(c, "/login")
	}
	ctx := c.Request().Context()
	id := c.Param("id")
	back := "/edit-project/" + id

	in, err := projectInput(c)
	if err != nil {
		s.logger.Warn(ctx, "bad project form", "error", err)
		return s.fail(c, msgGeneric, back)
	}
	img, err := s.imageUpload(c)
	if err != nil {
		s.logger.Warn(ctx, "bad image upload", "error", err)
		return s.fail(c, msgUploadFailed, back)
	}

	_, err = s.projects.Update(ctx, identity(c), id, in, img)
	if err != nil {
		return s.projectFailure(c, err, back)
	}
	return s.succeed(c, msgProjectEdited, "/")
}

func (s *Server) handleDelete(c echo.Context) error {
	if !s.requireLogin(c) {
		return redirect(c, "/login")
	}
	ctx := c.Request().Context()

	report, err := s.projects.Delete(ctx, identity(c), c.Param("id"))
	if err != nil {
		return s.projectFailure(c, err, "/")
	}
	s.logger.Info(ctx, "project removed", "project_id", c.Param("id"), "image", report.Image.Outcome.String())
	return s.succeed(c, msgProjectDeleted, "/")
}

// projectFailure maps a ProjectService error to a notice and a redirect.
// Validation problems return to the form; everything else to back or "/".
func (s *Server) projectFailure(c echo.Context, err error, back string) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return s.fail(c, msgProjectNotFound, "/")
	case errors.Is(err, common.ErrorForbidden):
		return s.fail(c, msgNotOwner, "/")
	case errors.Is(err, common.ErrorUnauthorized):
		s.warn(c, msgMustLogin)
		return redirect(c, "/login")
	case errors.Is(err, common.ErrorValidation):
		return s.fail(c, validationMessage(err), back)
	case errors.Is(err, common.ErrUpload):
		return s.fail(c, msgUploadFailed, back)
	default:
		s.logger.Error(c.Request().Context(), "project operation failed", "error", err)
		return s.fail(c, msgGeneric, "/")
	}
}

func projectInput(c echo.Context) (services.ProjectInput, error) {
	params, err := c.FormParams()
	if err != nil {
		return services.ProjectInput{}, err
	}
	return services.ProjectInput{
		Title:        params.Get("inputTitle"),
		StartDate:    params.Get("startDate"),
		EndDate:      params.Get("endDate"),
		Technologies: params["technologies"],
		Description:  params.Get("description"),
	}, nil
}

// imageUpload reads the optional uploadImage file. A missing file yields
// nil; a file larger than the limit is an error.
func (s *Server) imageUpload(c echo.Context) (*services.ImageUpload, error) {
	fh, err := c.FormFile("uploadImage")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return readUpload(fh, s.opts.MaxImageSize)
}

func readUpload(fh *multipart.FileHeader, limit int64) (*services.ImageUpload, error) {
	if limit > 0 && fh.Size > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", common.ErrUpload, fh.Filename, fh.Size)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := io.Reader(f)
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", common.ErrUpload, fh.Filename, limit)
	}

	return &services.ImageUpload{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
	}, nil
}

// validationMessage turns "field: message" into a sentence for a notice.
func validationMessage(err error) string {
	var ve *services.ValidationError
	if !errors.As(err, &ve) || ve.Message == "" {
		return msgGeneric
	}
	return strings.ToUpper(ve.Message[:1]) + ve.Message[1:]
}
