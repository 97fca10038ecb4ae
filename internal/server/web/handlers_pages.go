package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/labstack/echo/v4"
)

// Notice texts shown to users.
const (
	msgProjectAdded    = "Adding project successful!"
	msgProjectEdited   = "Edit successfull!"
	msgProjectDeleted  = "Project deleted successfully"
	msgProjectNotFound = "Project not found"
	msgNotOwner        = "You can only change your own projects"
	msgGeneric         = "Something went wrong!"
	msgEmailTaken      = "Email already exist"
	msgRegistered      = "Register Successful!"
	msgLoggedIn        = "Login Successful!"
	msgBadCredentials  = "Check again youre email or password"
	msgMustLogin       = "You're must login to continue!"
	msgLoggedOut       = "You're Logged out, Please Login to Continue!"
	msgUploadFailed    = "Image upload failed, please try another file"
)

func (s *Server) handleHome(c echo.Context) error {
	ctx := c.Request().Context()

	list, err := s.projects.List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list projects failed", "error", err)
		return s.render(c, http.StatusInternalServerError, "index", View{
			Title:  "Home",
			Notice: &Notice{Kind: NoticeError, Message: msgGeneric},
		})
	}

	return s.render(c, http.StatusOK, "index", View{Title: "Home", Projects: list})
}

func (s *Server) handleDetail(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := s.projects.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.fail(c, msgProjectNotFound, "/")
		}
		s.logger.Error(ctx, "load project failed", "project_id", c.Param("id"), "error", err)
		return s.fail(c, msgGeneric, "/")
	}

	return s.render(c, http.StatusOK, "detail-project", View{Title: p.Title, Project: p})
}

func (s *Server) handleStatic(page, title string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return s.render(c, http.StatusOK, page, View{Title: title})
	}
}

// redirect answers with 303 so a POST is followed by a GET.
func redirect(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}

// fail flashes an error notice and redirects to a safe route.
func (s *Server) fail(c echo.Context, message, to string) error {
	s.flash(c, NoticeError, message)
	return redirect(c, to)
}

// succeed flashes a success notice and redirects.
func (s *Server) succeed(c echo.Context, message, to string) error {
	s.flash(c, NoticeSuccess, message)
	return redirect(c, to)
}
