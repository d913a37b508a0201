package bot

import (
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/aifit/coachbot/app/storage"
)

// PendingEdit marks that a trainer pressed "Request edits" and is expected to
// supply feedback text next. It lives only in memory and is lost on restart.
type PendingEdit struct {
	// Anchor is the trainer message carrying the review buttons; it is
	// edited to a terminal confirmation once the feedback is applied.
	Anchor   *tele.Message
	TargetID int64
	Anketa   *storage.Anketa
	PlanText string
}

// PendingEdits holds at most one pending revision request per trainer id.
// A second "Request edits" overwrites the first.
type PendingEdits struct {
	mu      sync.Mutex
	entries map[int64]*PendingEdit
}

// NewPendingEdits constructs an empty store.
func NewPendingEdits() *PendingEdits {
	return &PendingEdits{entries: make(map[int64]*PendingEdit)}
}

// Put records a pending edit for the trainer, replacing any previous one.
func (p *PendingEdits) Put(trainerID int64, pe *PendingEdit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[trainerID] = pe
}

// Get returns the pending edit for the trainer, if any.
func (p *PendingEdits) Get(trainerID int64) (*PendingEdit, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pe, ok := p.entries[trainerID]
	return pe, ok
}

// Delete removes the pending edit for the trainer, if any.
func (p *PendingEdits) Delete(trainerID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, trainerID)
}

// Len reports the number of trainers with a pending edit.
func (p *PendingEdits) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
