package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aifit/coachbot/app/storage"
)

type fakePlanStore struct {
	inserted  []*storage.Plan
	insertErr error
	last      *storage.Plan
	lastErr   error
}

func (f *fakePlanStore) Insert(_ context.Context, p *storage.Plan) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, p)
	return int64(len(f.inserted)), nil
}

func (f *fakePlanStore) LastByUser(context.Context, int64) (*storage.Plan, error) {
	return f.last, f.lastErr
}

func TestPlanSave(t *testing.T) {
	store := &fakePlanStore{}
	svc := NewPlanService(store)

	p, err := svc.Save(context.Background(), 100, "4 weeks of squats", storage.PlanStatusEdited, "more legs")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, storage.PlanStatusEdited, p.Status)
	assert.Equal(t, "more legs", p.TrainerFeedback)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "4 weeks of squats", store.inserted[0].PlanText)
}

func TestPlanSaveFailure(t *testing.T) {
	store := &fakePlanStore{insertErr: errors.New("disk full")}
	svc := NewPlanService(store)

	_, err := svc.Save(context.Background(), 100, "plan", storage.PlanStatusGenerated, "")
	var pErr *PersistenceError
	require.ErrorAs(t, err, &pErr)
}

func TestPlanLatestByUser(t *testing.T) {
	store := &fakePlanStore{lastErr: storage.ErrNotFound}
	svc := NewPlanService(store)

	_, err := svc.LatestByUser(context.Background(), 100)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
