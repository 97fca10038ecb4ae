// Package projects provides the PostgreSQL-backed project repository.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/portfolio/internal/common"
	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// invalidTextRepresentation is reported by Postgres for malformed uuids.
const invalidTextRepresentation = "22P02"

const selectColumns = `
	SELECT p.id, p.user_id, p.title, p.start_date, p.end_date, p.duration,
	       p.technologies, p.description, p.image_url, p.image_key,
	       p.created_at, p.updated_at, u.id, u.name, u.email
	FROM projects p
	JOIN users u ON u.id = p.user_id
`

// PostgresRepository implements project storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db   dbx.DBTX
	tmap *pgtype.Map
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, tmap: pgtype.NewMap()}
}

// Create inserts p and fills in ID, CreatedAt and UpdatedAt.
func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	query := `
		INSERT INTO projects (user_id, title, start_date, end_date, duration, technologies, description, image_url, image_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.UserID, p.Title, p.StartDate, p.EndDate, p.Duration, technologies(p.Technologies),
		p.Description, p.ImageURL, p.ImageKey,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, dbError(err)
	}
	return p, nil
}

// GetByID returns the project with its owner. Unknown and malformed ids
// yield common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	return r.getOne(ctx, selectColumns+` WHERE p.id = $1`, id)
}

// GetByIDForUpdate is GetByID that also locks the project row until the
// surrounding transaction ends.
func (r *PostgresRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Project, error) {
	return r.getOne(ctx, selectColumns+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, id string) (*models.Project, error) {
	p, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isCode(err, invalidTextRepresentation) {
			return nil, common.ErrorNotFound
		}
		return nil, dbError(err)
	}
	return p, nil
}

// ListOrdered returns every project, newest first.
func (r *PostgresRepository) ListOrdered(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	result := make([]*models.Project, 0)
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, dbError(err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return result, nil
}

// Update overwrites every mutable field of p and bumps updated_at.
func (r *PostgresRepository) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	query := `
		UPDATE projects SET
			user_id = $2, title = $3, start_date = $4, end_date = $5, duration = $6,
			technologies = $7, description = $8, image_url = $9, image_key = $10,
			updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.Title, p.StartDate, p.EndDate, p.Duration, technologies(p.Technologies),
		p.Description, p.ImageURL, p.ImageKey,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isCode(err, invalidTextRepresentation) {
			return nil, common.ErrorNotFound
		}
		return nil, dbError(err)
	}
	return p, nil
}

// Delete removes the project row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		if isCode(err, invalidTextRepresentation) {
			return common.ErrorNotFound
		}
		return dbError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepository) scan(s scanner) (*models.Project, error) {
	var (
		p     models.Project
		owner models.Owner
		techs []string
	)
	err := s.Scan(
		&p.ID, &p.UserID, &p.Title, &p.StartDate, &p.EndDate, &p.Duration,
		r.tmap.SQLScanner(&techs), &p.Description, &p.ImageURL, &p.ImageKey,
		&p.CreatedAt, &p.UpdatedAt, &owner.ID, &owner.Name, &owner.Email,
	)
	if err != nil {
		return nil, err
	}
	p.Technologies = technologies(techs)
	p.Owner = &owner
	return &p, nil
}

// technologies keeps empty tag lists non-nil so they encode as '{}'.
func technologies(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func dbError(err error) error {
	return errors.Join(common.ErrPersistence, fmt.Errorf("db error: %w", err))
}
