package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/server/imagestore"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ann = models.Identity{ID: "u-ann", Name: "Ann", Email: "ann@example.com"}
	bob = models.Identity{ID: "u-bob", Name: "Bob", Email: "bob@example.com"}
)

func validInput() ProjectInput {
	return ProjectInput{
		Title:        "Portfolio site",
		StartDate:    "2024-01-01",
		EndDate:      "2024-03-01",
		Technologies: []string{"react", "node"},
		Description:  "A site",
	}
}

func png(name string) *ImageUpload {
	return &ImageUpload{Data: []byte("\x89PNG\r\n\x1a\n"), Filename: name, ContentType: "image/png"}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	p, err := f.projSvc.Create(context.Background(), ann, validInput(), png("a.png"))
	require.NoError(t, err)

	assert.Equal(t, "2 months", p.Duration)
	assert.Equal(t, ann.ID, p.UserID)
	assert.Equal(t, []string{"node", "react"}, p.Technologies)
	assert.Equal(t, "img/1-a.png", p.ImageKey)
	assert.Equal(t, "https://media.example/img/1-a.png", p.ImageURL)

	got, err := f.projSvc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	want, err := timex.Span(got.StartDate, got.EndDate)
	require.NoError(t, err)
	assert.Equal(t, want, got.Duration)
}

func TestCreate_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		actor models.Identity
		in    func(*ProjectInput)
		img   *ImageUpload
		want  error
		field string
	}{
		{name: "anonymous", actor: models.Identity{}, img: png("a.png"), want: common.ErrorUnauthorized},
		{name: "no title", actor: ann, in: func(in *ProjectInput) { in.Title = "  " }, img: png("a.png"), want: common.ErrorValidation, field: "title"},
		{name: "no description", actor: ann, in: func(in *ProjectInput) { in.Description = "" }, img: png("a.png"), want: common.ErrorValidation, field: "description"},
		{name: "bad start", actor: ann, in: func(in *ProjectInput) { in.StartDate = "01/02/2024" }, img: png("a.png"), want: common.ErrorValidation, field: "startDate"},
		{name: "missing end", actor: ann, in: func(in *ProjectInput) { in.EndDate = "" }, img: png("a.png"), want: common.ErrorValidation, field: "endDate"},
		{name: "end before start", actor: ann, in: func(in *ProjectInput) { in.EndDate = "2023-12-31" }, img: png("a.png"), want: common.ErrInvalidDateRange, field: "endDate"},
		{name: "unknown tech", actor: ann, in: func(in *ProjectInput) { in.Technologies = []string{"cobol"} }, img: png("a.png"), want: common.ErrorValidation, field: "technologies"},
		{name: "no image", actor: ann, img: nil, want: common.ErrorValidation, field: "uploadImage"},
		{name: "empty image", actor: ann, img: &ImageUpload{Filename: "a.png"}, want: common.ErrorValidation, field: "uploadImage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInput()
			if tt.in != nil {
				tt.in(&in)
			}
			_, err := f.projSvc.Create(context.Background(), tt.actor, in, tt.img)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.field, FieldOf(err))
			assert.Empty(t, f.images.stored)
			assert.Empty(t, f.projects.rows)
		})
	}
}

func TestCreate_UploadFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.images.uploadErr = fmt.Errorf("%w: boom", common.ErrUpload)

	_, err := f.projSvc.Create(context.Background(), ann, validInput(), png("a.png"))
	assert.ErrorIs(t, err, common.ErrUpload)
	assert.Empty(t, f.projects.rows)
}

func TestCreate_InsertFailureRemovesUpload(t *testing.T) {
	f := newFixture(t)
	f.projects.createErr = errors.Join(common.ErrPersistence, errors.New("db down"))

	_, err := f.projSvc.Create(context.Background(), ann, validInput(), png("a.png"))
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.Equal(t, []string{"img/1-a.png"}, f.images.deletes)
	assert.Empty(t, f.images.stored)
}

func TestNormalizeTechnologies(t *testing.T) {
	got, err := normalizeTechnologies([]string{"typescript, node", "NODE", "", " react "})
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "react", "typescript"}, got)

	got, err = normalizeTechnologies(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestList_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		in := validInput()
		in.Title = fmt.Sprintf("p%d", i)
		_, err := f.projSvc.Create(ctx, ann, in, png("a.png"))
		require.NoError(t, err)
	}

	list, err := f.projSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
	}
	assert.Equal(t, "p4", list[0].Title)
}

func TestUpdate_RecomputesDurationAndReplacesImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("old.png"))
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	in := validInput()
	in.EndDate = "2025-01-01"
	updated, err := f.projSvc.Update(ctx, ann, p.ID, in, png("new.png"))
	require.NoError(t, err)

	assert.Equal(t, "1 year", updated.Duration)
	assert.Equal(t, "img/2-new.png", updated.ImageKey)
	assert.Equal(t, []string{"img/1-old.png"}, f.images.deletes)
	assert.True(t, f.images.stored["img/2-new.png"])
	assert.False(t, f.images.stored["img/1-old.png"])
	assert.NoError(t, f.mock.ExpectationsWereMet())

	got, err := f.projSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "1 year", got.Duration)
}

func TestUpdate_WithoutImageKeepsImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("a.png"))
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	in := validInput()
	in.Description = "changed"
	updated, err := f.projSvc.Update(ctx, ann, p.ID, in, &ImageUpload{})
	require.NoError(t, err)
	assert.Equal(t, p.ImageKey, updated.ImageKey)
	assert.Equal(t, "changed", updated.Description)
	assert.Empty(t, f.images.deletes)
}

func TestUpdate_OldImageDeleteFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("old.png"))
	require.NoError(t, err)

	f.images.deleteRes = &imagestore.DeleteResult{Outcome: imagestore.DeleteFailed, Err: common.ErrImageDelete}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.projSvc.Update(ctx, ann, p.ID, validInput(), png("new.png"))
	require.NoError(t, err)
	assert.Equal(t, "img/2-new.png", updated.ImageKey)
}

func TestUpdate_Forbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("a.png"))
	require.NoError(t, err)

	t.Run("with image is refused before upload", func(t *testing.T) {
		_, err := f.projSvc.Update(ctx, bob, p.ID, validInput(), png("b.png"))
		assert.ErrorIs(t, err, common.ErrorForbidden)
		assert.Equal(t, 1, f.images.seq)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("without image is refused under the lock", func(t *testing.T) {
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.projSvc.Update(ctx, bob, p.ID, validInput(), nil)
		assert.ErrorIs(t, err, common.ErrorForbidden)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.projSvc.Update(context.Background(), ann, "p-missing", validInput(), nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.projSvc.Update(context.Background(), ann, "p-missing", validInput(), png("x.png"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Zero(t, f.images.seq)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdate_ProjectRemovedDuringUploadDiscardsImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("a.png"))
	require.NoError(t, err)

	f.images.afterUpload = func() { require.NoError(t, f.projects.Delete(ctx, p.ID)) }
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err = f.projSvc.Update(ctx, ann, p.ID, validInput(), png("b.png"))
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, f.images.deletes, "img/2-b.png")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdate_UploadFailureKeepsProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("a.png"))
	require.NoError(t, err)

	// No transaction is expected: the upload fails before the row is locked.
	f.images.uploadErr = fmt.Errorf("%w: timeout", common.ErrUpload)

	in := validInput()
	in.Title = "changed"
	_, err = f.projSvc.Update(ctx, ann, p.ID, in, png("b.png"))
	assert.ErrorIs(t, err, common.ErrUpload)
	assert.NoError(t, f.mock.ExpectationsWereMet())

	got, err := f.projSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Portfolio site", got.Title)
	assert.Equal(t, p.ImageKey, got.ImageKey)
	assert.Empty(t, f.images.deletes)
}

func TestUpdate_WriteFailureRemovesNewUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("a.png"))
	require.NoError(t, err)

	f.projects.updateErr = errors.Join(common.ErrPersistence, errors.New("db down"))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err = f.projSvc.Update(ctx, ann, p.ID, validInput(), png("b.png"))
	assert.ErrorIs(t, err, common.ErrPersistence)
	assert.Equal(t, []string{"img/2-b.png"}, f.images.deletes)
	assert.True(t, f.images.stored[p.ImageKey])
}

func TestDelete_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("a.png"))
	require.NoError(t, err)

	report, err := f.projSvc.Delete(ctx, ann, p.ID)
	require.NoError(t, err)
	assert.Equal(t, imagestore.DeleteOK, report.Image.Outcome)
	assert.Equal(t, p.ID, report.Project.ID)

	_, err = f.projSvc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete_RemovesRecordEvenIfImageDeleteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("a.png"))
	require.NoError(t, err)

	f.images.deleteRes = &imagestore.DeleteResult{Outcome: imagestore.DeleteFailed, Err: common.ErrImageDelete}

	report, err := f.projSvc.Delete(ctx, ann, p.ID)
	require.NoError(t, err)
	assert.Equal(t, imagestore.DeleteFailed, report.Image.Outcome)

	list, err := f.projSvc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete_ForbiddenAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.projSvc.Create(ctx, ann, validInput(), png("a.png"))
	require.NoError(t, err)

	_, err = f.projSvc.Delete(ctx, bob, p.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.projSvc.Delete(ctx, models.Identity{}, p.ID)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = f.projSvc.Delete(ctx, ann, "p-missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.Empty(t, f.images.deletes)
	_, err = f.projSvc.Get(ctx, p.ID)
	assert.NoError(t, err)
}

func TestEndToEnd_UserProjectLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.userSvc.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	a, err := f.userSvc.Authenticate(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	p, err := f.projSvc.Create(ctx, a, validInput(), png("a.png"))
	require.NoError(t, err)
	assert.Equal(t, "2 months", p.Duration)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	in := validInput()
	in.Description = "only the description changed"
	edited, err := f.projSvc.Update(ctx, a, p.ID, in, nil)
	require.NoError(t, err)
	assert.Equal(t, "2 months", edited.Duration)
	assert.Equal(t, "only the description changed", edited.Description)

	_, err = f.projSvc.Delete(ctx, a, p.ID)
	require.NoError(t, err)

	_, err = f.projSvc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
