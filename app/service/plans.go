package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aifit/coachbot/app/storage"
	"github.com/aifit/coachbot/core/logger"
)

// PlanStore is the persistence surface required by the plan service.
type PlanStore interface {
	Insert(ctx context.Context, p *storage.Plan) (int64, error)
	LastByUser(ctx context.Context, userID int64) (*storage.Plan, error)
}

// PlanService persists generated plans and their review outcomes.
type PlanService struct {
	store PlanStore
}

// NewPlanService constructs the service over a store.
func NewPlanService(store PlanStore) *PlanService {
	return &PlanService{store: store}
}

// Save stores a plan with the given status and optional trainer feedback.
func (s *PlanService) Save(ctx context.Context, userID int64, planText, status, feedback string) (*storage.Plan, error) {
	p := &storage.Plan{
		UserID:          userID,
		PlanText:        planText,
		Status:          status,
		TrainerFeedback: feedback,
	}
	id, err := s.store.Insert(ctx, p)
	if err != nil {
		logger.Error(ctx, "service.plans", "plan.save",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("plan_status", status),
			slog.String("err", err.Error()),
		)
		return nil, &PersistenceError{Op: "plan.insert", Err: err}
	}
	p.ID = id

	logger.Info(ctx, "service.plans", "plan.save",
		slog.String("status", "ok"),
		slog.Int64("plan_id", id),
		slog.Int64("user_id", userID),
		slog.String("plan_status", status),
		slog.Int("plan_len", len(planText)),
	)
	return p, nil
}

// LatestByUser returns the most recent plan stored for a user.
func (s *PlanService) LatestByUser(ctx context.Context, userID int64) (*storage.Plan, error) {
	p, err := s.store.LastByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "plan.last_by_user", Err: err}
	}
	return p, nil
}
