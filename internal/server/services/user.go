// Package services contains the server-side business logic: account
// registration and login (UserService) and project management
// (ProjectService).
package services

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/auth"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// UserService registers accounts and checks credentials.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "users"),
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. The password is stored only as a bcrypt
// hash. A taken email yields common.ErrEmailAlreadyExists.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if name == "" {
		return nil, invalid("name", "name is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, invalid("email", "email is not valid")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, invalid("password", "password is too short")
	}
	if len(password) > MaxPasswordBytes {
		return nil, invalid("password", "password is too long")
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrEmailAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		s.logger.Error(ctx, "email lookup failed", "error", err)
		return nil, err
	}

	hash, err := auth.HashPassword([]byte(password))
	if err != nil {
		return nil, err
	}

	u, err := repo.Create(ctx, &models.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		if !errors.Is(err, common.ErrEmailAlreadyExists) {
			s.logger.Error(ctx, "user create failed", "error", err)
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate checks credentials and returns the session identity.
// Unknown emails and wrong passwords both yield
// common.ErrInvalidCredentials; storage failures yield
// common.ErrorInternal.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.Identity, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnPasswordCheck([]byte(password))
			return models.Identity{}, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return models.Identity{}, common.ErrorInternal
	}

	ok, err := auth.CheckPassword(user.PasswordHash, []byte(password))
	if err != nil {
		s.logger.Error(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		return models.Identity{}, common.ErrorInternal
	}
	if !ok {
		return models.Identity{}, common.ErrInvalidCredentials
	}

	return models.IdentityOf(user), nil
}
