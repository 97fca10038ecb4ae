package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/imagestore"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/projects"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// --- repository manager ---

type fakeRepoManager struct {
	users    *fakeUsers
	projects *fakeProjects
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return m.users }
func (m *fakeRepoManager) Projects(dbx.DBTX) projects.Repository       { return m.projects }

// --- users ---

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	seq     int

	getErr    error
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: make(map[string]*models.User)}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrEmailAlreadyExists
	}
	f.seq++
	u.ID = fmt.Sprintf("u-%d", f.seq)
	u.CreatedAt = time.Now()
	cp := *u
	f.byEmail[u.Email] = &cp
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

// --- projects ---

type fakeProjects struct {
	mu    sync.Mutex
	rows  map[string]*models.Project
	seq   int
	clock time.Time

	createErr error
	updateErr error
	deleteErr error
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{
		rows:  make(map[string]*models.Project),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func clone(p *models.Project) *models.Project {
	cp := *p
	cp.Technologies = append([]string(nil), p.Technologies...)
	if p.Owner != nil {
		o := *p.Owner
		cp.Owner = &o
	}
	return &cp
}

func (f *fakeProjects) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	f.clock = f.clock.Add(time.Second)
	p.ID = fmt.Sprintf("p-%03d", f.seq)
	p.CreatedAt, p.UpdatedAt = f.clock, f.clock
	stored := clone(p)
	stored.Owner = &models.Owner{ID: p.UserID}
	f.rows[p.ID] = stored
	return p, nil
}

func (f *fakeProjects) GetByID(ctx context.Context, id string) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(p), nil
}

func (f *fakeProjects) GetByIDForUpdate(ctx context.Context, id string) (*models.Project, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeProjects) ListOrdered(ctx context.Context) ([]*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Project, 0, len(f.rows))
	for _, p := range f.rows {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeProjects) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	old, ok := f.rows[p.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	f.clock = f.clock.Add(time.Second)
	p.CreatedAt, p.UpdatedAt = old.CreatedAt, f.clock
	f.rows[p.ID] = clone(p)
	return p, nil
}

func (f *fakeProjects) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, id)
	return nil
}

// --- images ---

type fakeImages struct {
	mu        sync.Mutex
	seq       int
	stored    map[string]bool
	uploadErr error
	deleteRes *imagestore.DeleteResult
	deletes   []string

	afterUpload func()
}

func newFakeImages() *fakeImages {
	return &fakeImages{stored: make(map[string]bool)}
}

func (f *fakeImages) Upload(ctx context.Context, data []byte, hints imagestore.ContentHints) (models.Image, error) {
	f.mu.Lock()
	if f.uploadErr != nil {
		f.mu.Unlock()
		return models.Image{}, f.uploadErr
	}
	f.seq++
	key := fmt.Sprintf("img/%d-%s", f.seq, hints.Filename)
	f.stored[key] = true
	hook := f.afterUpload
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return models.Image{URL: "https://media.example/" + key, Key: key}, nil
}

func (f *fakeImages) Delete(ctx context.Context, key string) imagestore.DeleteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if f.deleteRes != nil {
		return *f.deleteRes
	}
	if !f.stored[key] {
		return imagestore.DeleteResult{Key: key, Outcome: imagestore.DeleteNotFound}
	}
	delete(f.stored, key)
	return imagestore.DeleteResult{Key: key, Outcome: imagestore.DeleteOK}
}

// --- wiring ---

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	users    *fakeUsers
	projects *fakeProjects
	images   *fakeImages
	userSvc  *UserService
	projSvc  *ProjectService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		mock:     mock,
		users:    newFakeUsers(),
		projects: newFakeProjects(),
		images:   newFakeImages(),
	}
	rm := &fakeRepoManager{users: f.users, projects: f.projects}
	f.userSvc = NewUserService(db, rm, logging.Nop())
	f.projSvc = NewProjectService(db, rm, f.images, logging.Nop())
	return f
}
