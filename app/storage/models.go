package storage

import "time"

// Plan lifecycle statuses as persisted in the plans table.
const (
	PlanStatusGenerated = "generated"
	PlanStatusApproved  = "approved"
	PlanStatusEdited    = "edited"
)

// Anketa is one completed intake questionnaire. Rows are immutable; the most
// recent row per user is the current one.
type Anketa struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Name      string    `db:"name"`
	Age       int       `db:"age"`
	Height    int       `db:"height"`
	Weight    int       `db:"weight"`
	Goals     string    `db:"goals"`
	Injuries  string    `db:"injuries"`
	CreatedAt time.Time `db:"created_at"`
}

// Plan is one generated or revised fitness program tied to a user.
type Plan struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	PlanText        string    `db:"plan_text"`
	Status          string    `db:"status"`
	TrainerFeedback string    `db:"trainer_feedback"`
	CreatedAt       time.Time `db:"created_at"`
}
