package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aifit/coachbot/app/storage"
	"github.com/aifit/coachbot/core/logger"
)

// UsernameNotProvided is stored when the sender has no Telegram username.
const UsernameNotProvided = "not provided"

// AnketaStore is the persistence surface required by the anketa service.
type AnketaStore interface {
	Insert(ctx context.Context, a *storage.Anketa) (int64, error)
	LastGlobal(ctx context.Context) (*storage.Anketa, error)
	LastByUser(ctx context.Context, userID int64) (*storage.Anketa, error)
}

// IntakeDraft carries the raw text answers accumulated by the intake flow.
// Numeric fields stay strings until SubmitIntake validates them.
type IntakeDraft struct {
	UserID   int64
	Username string
	Name     string
	Age      string
	Height   string
	Weight   string
	Goals    string
	Injuries string
}

// AnketaService validates and persists intake questionnaires.
type AnketaService struct {
	store AnketaStore
}

// NewAnketaService constructs the service over a store.
func NewAnketaService(store AnketaStore) *AnketaService {
	return &AnketaService{store: store}
}

// ParseField validates a single numeric intake answer. It is exported so the
// intake flow can reject a bad value at the step where it was entered.
func ParseField(field, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0, &ValidationError{Field: field, Value: raw}
	}
	return v, nil
}

// SubmitIntake validates the draft and stores it as a questionnaire row.
func (s *AnketaService) SubmitIntake(ctx context.Context, draft IntakeDraft) (*storage.Anketa, error) {
	age, err := ParseField("age", draft.Age)
	if err != nil {
		return nil, err
	}
	height, err := ParseField("height", draft.Height)
	if err != nil {
		return nil, err
	}
	weight, err := ParseField("weight", draft.Weight)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(draft.Username)
	if username == "" {
		username = UsernameNotProvided
	}

	a := &storage.Anketa{
		UserID:   draft.UserID,
		Username: username,
		Name:     strings.TrimSpace(draft.Name),
		Age:      age,
		Height:   height,
		Weight:   weight,
		Goals:    strings.TrimSpace(draft.Goals),
		Injuries: strings.TrimSpace(draft.Injuries),
	}

	id, err := s.store.Insert(ctx, a)
	if err != nil {
		logger.Error(ctx, "service.anketa", "anketa.save",
			slog.String("status", "fail"),
			slog.Int64("user_id", a.UserID),
			slog.String("err", err.Error()),
		)
		return nil, &PersistenceError{Op: "anketa.insert", Err: err}
	}
	a.ID = id

	logger.Info(ctx, "service.anketa", "anketa.save",
		slog.String("status", "ok"),
		slog.Int64("anketa_id", id),
		slog.Int64("user_id", a.UserID),
	)
	return a, nil
}

// LatestGlobal returns the most recent questionnaire across all users.
// The review loop deliberately keeps this global-latest semantics.
func (s *AnketaService) LatestGlobal(ctx context.Context) (*storage.Anketa, error) {
	a, err := s.store.LastGlobal(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "anketa.last", Err: err}
	}
	return a, nil
}

// LatestByUser returns the most recent questionnaire for a single user.
func (s *AnketaService) LatestByUser(ctx context.Context, userID int64) (*storage.Anketa, error) {
	a, err := s.store.LastByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "anketa.last_by_user", Err: err}
	}
	return a, nil
}
