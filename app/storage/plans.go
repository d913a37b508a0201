package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PlanRepo persists and retrieves generated plans.
type PlanRepo struct {
	db *sqlx.DB
}

// NewPlanRepo constructs a PlanRepo over an open pool.
func NewPlanRepo(db *sqlx.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Insert stores a plan row and returns its id.
func (r *PlanRepo) Insert(ctx context.Context, p *Plan) (int64, error) {
	const q = `
		INSERT INTO plans (user_id, plan_text, status, trainer_feedback, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id`

	var id int64
	err := r.db.QueryRowxContext(ctx, q,
		p.UserID, p.PlanText, p.Status, p.TrainerFeedback,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert plan: %w", err)
	}
	return id, nil
}

// LastByUser returns the most recent plan for one user.
func (r *PlanRepo) LastByUser(ctx context.Context, userID int64) (*Plan, error) {
	const q = `SELECT * FROM plans WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	var p Plan
	if err := r.db.GetContext(ctx, &p, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select last plan by user: %w", err)
	}
	return &p, nil
}
