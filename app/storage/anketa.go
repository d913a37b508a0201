package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no rows.
var ErrNotFound = errors.New("storage: not found")

// AnketaRepo persists and retrieves intake questionnaires.
type AnketaRepo struct {
	db *sqlx.DB
}

// NewAnketaRepo constructs an AnketaRepo over an open pool.
func NewAnketaRepo(db *sqlx.DB) *AnketaRepo {
	return &AnketaRepo{db: db}
}

// Insert stores a questionnaire and returns its id.
func (r *AnketaRepo) Insert(ctx context.Context, a *Anketa) (int64, error) {
	const q = `
		INSERT INTO anketa (user_id, username, name, age, height, weight, goals, injuries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRowxContext(ctx, q,
		a.UserID, a.Username, a.Name, a.Age, a.Height, a.Weight, a.Goals, a.Injuries,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert anketa: %w", err)
	}
	return id, nil
}

// LastGlobal returns the most recent questionnaire across all users. The
// review flow acts on this row regardless of which review message triggered it.
func (r *AnketaRepo) LastGlobal(ctx context.Context) (*Anketa, error) {
	const q = `SELECT * FROM anketa ORDER BY created_at DESC, id DESC LIMIT 1`

	var a Anketa
	if err := r.db.GetContext(ctx, &a, q); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select last anketa: %w", err)
	}
	return &a, nil
}

// LastByUser returns the most recent questionnaire for one user.
func (r *AnketaRepo) LastByUser(ctx context.Context, userID int64) (*Anketa, error) {
	const q = `SELECT * FROM anketa WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	var a Anketa
	if err := r.db.GetContext(ctx, &a, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select last anketa by user: %w", err)
	}
	return &a, nil
}
