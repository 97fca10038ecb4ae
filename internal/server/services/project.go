package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/imagestore"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/portfolio/internal/timex"
)

// ImageStore keeps project images on the media host.
type ImageStore interface {
	Upload(ctx context.Context, data []byte, hints imagestore.ContentHints) (models.Image, error)
	Delete(ctx context.Context, key string) imagestore.DeleteResult
}

// ProjectInput is a submitted project form. Dates use common.DateLayout;
// technology entries may hold several comma-separated keys.
type ProjectInput struct {
	Title        string
	StartDate    string
	EndDate      string
	Technologies []string
	Description  string
}

// ImageUpload is an image file attached to a form.
type ImageUpload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// DeleteReport describes a completed project deletion.
type DeleteReport struct {
	Project *models.Project
	Image   imagestore.DeleteResult
}

// ProjectService manages projects and their images.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImageStore
	logger      logging.Logger
}

// NewProjectService constructs a ProjectService.
func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, images ImageStore, logger logging.Logger) *ProjectService {
	return &ProjectService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      logger.With("module", "projects"),
	}
}

type projectFields struct {
	title        string
	start, end   time.Time
	duration     string
	technologies []string
	description  string
}

func (in ProjectInput) validate() (projectFields, error) {
	var f projectFields

	f.title = strings.TrimSpace(in.Title)
	if f.title == "" {
		return f, invalid("title", "title is required")
	}
	f.description = strings.TrimSpace(in.Description)
	if f.description == "" {
		return f, invalid("description", "description is required")
	}

	var err error
	if f.start, err = parseDate(in.StartDate); err != nil {
		return f, invalid("startDate", "start date is required")
	}
	if f.end, err = parseDate(in.EndDate); err != nil {
		return f, invalid("endDate", "end date is required")
	}
	if f.duration, err = timex.Span(f.start, f.end); err != nil {
		return f, &ValidationError{Field: "endDate", Message: "end date precedes start date", Cause: err}
	}

	if f.technologies, err = normalizeTechnologies(in.Technologies); err != nil {
		return f, err
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(common.DateLayout, strings.TrimSpace(s))
}

// normalizeTechnologies splits comma-separated entries, drops blanks and
// duplicates and returns the keys in vocabulary order.
func normalizeTechnologies(raw []string) ([]string, error) {
	selected := make(map[string]bool)
	for _, entry := range raw {
		for _, key := range strings.Split(entry, ",") {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" {
				continue
			}
			if !models.IsKnownTech(key) {
				return nil, invalid("technologies", "unknown technology "+key)
			}
			selected[key] = true
		}
	}

	out := make([]string, 0, len(selected))
	for _, t := range models.Technologies {
		if selected[t.Key] {
			out = append(out, t.Key)
		}
	}
	return out, nil
}

func (f projectFields) apply(p *models.Project) {
	p.Title = f.title
	p.StartDate = f.start
	p.EndDate = f.end
	p.Duration = f.duration
	p.Technologies = f.technologies
	p.Description = f.description
}

// Get returns a project with its owner.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.repomanager.Projects(s.db).GetByID(ctx, id)
}

// List returns every project, newest first.
func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	return s.repomanager.Projects(s.db).ListOrdered(ctx)
}

// Create validates in, uploads img and stores the project owned by actor.
// An image is required. If the insert fails the uploaded image is removed.
func (s *ProjectService) Create(ctx context.Context, actor models.Identity, in ProjectInput, img *ImageUpload) (*models.Project, error) {
	if !actor.IsAuthenticated() {
		return nil, common.ErrorUnauthorized
	}
	fields, err := in.validate()
	if err != nil {
		return nil, err
	}
	if img == nil || len(img.Data) == 0 {
		return nil, invalid("uploadImage", "image is required")
	}

	uploaded, err := s.upload(ctx, img)
	if err != nil {
		return nil, err
	}

	p := &models.Project{UserID: actor.ID, ImageURL: uploaded.URL, ImageKey: uploaded.Key}
	fields.apply(p)

	created, err := s.repomanager.Projects(s.db).Create(ctx, p)
	if err != nil {
		s.logger.Error(ctx, "project insert failed", "user_id", actor.ID, "error", err)
		s.discard(ctx, uploaded.Key, "orphaned upload")
		return nil, err
	}

	s.logger.Info(ctx, "project created", "project_id", created.ID, "user_id", actor.ID)
	return created, nil
}

// Update overwrites the project with in. Only the owner may update. When
// img is set the new image is uploaded before the row is locked and the
// previous image is removed after commit; a failure removing the previous
// image is only logged.
func (s *ProjectService) Update(ctx context.Context, actor models.Identity, id string, in ProjectInput, img *ImageUpload) (*models.Project, error) {
	if !actor.IsAuthenticated() {
		return nil, common.ErrorUnauthorized
	}
	fields, err := in.validate()
	if err != nil {
		return nil, err
	}
	if img != nil && len(img.Data) == 0 {
		img = nil
	}

	var (
		updated  *models.Project
		uploaded *models.Image
		oldKey   string
	)

	// The media call runs outside the transaction so a slow host never
	// holds the row lock. Ownership is checked again under the lock.
	if img != nil {
		if err := s.checkOwner(ctx, actor, id); err != nil {
			return nil, s.updateFailed(ctx, id, err)
		}
		stored, err := s.upload(ctx, img)
		if err != nil {
			return nil, err
		}
		uploaded = &stored
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)

		p, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(p) {
			return common.ErrorForbidden
		}

		fields.apply(p)

		if uploaded != nil {
			oldKey = p.ImageKey
			p.ImageURL, p.ImageKey = uploaded.URL, uploaded.Key
		}

		owner := p.Owner
		updated, err = repo.Update(ctx, p)
		if err != nil {
			return err
		}
		updated.Owner = owner
		return nil
	})
	if err != nil {
		if uploaded != nil {
			s.discard(ctx, uploaded.Key, "orphaned upload")
		}
		return nil, s.updateFailed(ctx, id, err)
	}

	if uploaded != nil && oldKey != "" && oldKey != uploaded.Key {
		s.discard(ctx, oldKey, "replaced image")
	}

	s.logger.Info(ctx, "project updated", "project_id", id, "user_id", actor.ID)
	return updated, nil
}

// checkOwner loads the project without locking it and verifies actor owns it.
func (s *ProjectService) checkOwner(ctx context.Context, actor models.Identity, id string) error {
	p, err := s.repomanager.Projects(s.db).GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Owns(p) {
		return common.ErrorForbidden
	}
	return nil
}

func (s *ProjectService) updateFailed(ctx context.Context, id string, err error) error {
	if !isExpected(err) {
		s.logger.Error(ctx, "project update failed", "project_id", id, "error", err)
	}
	return err
}

// Delete removes the project's image and then its row. Only the owner may
// delete. The image outcome is reported but never stops the row removal.
func (s *ProjectService) Delete(ctx context.Context, actor models.Identity, id string) (DeleteReport, error) {
	if !actor.IsAuthenticated() {
		return DeleteReport{}, common.ErrorUnauthorized
	}

	repo := s.repomanager.Projects(s.db)

	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return DeleteReport{}, err
	}
	if !actor.Owns(p) {
		return DeleteReport{}, common.ErrorForbidden
	}

	report := DeleteReport{Project: p, Image: s.discard(ctx, p.ImageKey, "deleted project")}

	if err := repo.Delete(ctx, id); err != nil {
		s.logger.Error(ctx, "project delete failed", "project_id", id, "error", err)
		return report, err
	}

	s.logger.Info(ctx, "project deleted", "project_id", id, "user_id", actor.ID)
	return report, nil
}

func (s *ProjectService) upload(ctx context.Context, img *ImageUpload) (models.Image, error) {
	uploaded, err := s.images.Upload(ctx, img.Data, imagestore.ContentHints{
		Filename:    img.Filename,
		ContentType: img.ContentType,
	})
	if err != nil {
		s.logger.Warn(ctx, "image upload failed", "filename", img.Filename, "error", err)
		return models.Image{}, err
	}
	return uploaded, nil
}

// discard deletes an image and logs the outcome.
func (s *ProjectService) discard(ctx context.Context, key, reason string) imagestore.DeleteResult {
	res := s.images.Delete(ctx, key)
	switch res.Outcome {
	case imagestore.DeleteFailed:
		s.logger.Warn(ctx, "image delete failed", "key", key, "reason", reason, "error", res.Err)
	default:
		s.logger.Info(ctx, "image deleted", "key", key, "reason", reason, "outcome", res.Outcome.String())
	}
	return res
}

func isExpected(err error) bool {
	return errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorForbidden) ||
		errors.Is(err, common.ErrUpload)
}
