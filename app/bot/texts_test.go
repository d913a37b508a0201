package bot

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/aifit/coachbot/app/planner"
	"github.com/aifit/coachbot/app/storage"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
	}{
		{name: "short untouched", in: strings.Repeat("a", 500), limit: 1000},
		{name: "exact limit untouched", in: strings.Repeat("a", 1000), limit: 1000},
		{name: "long cut", in: strings.Repeat("a", 2000), limit: 1000},
		{name: "multibyte cut", in: strings.Repeat("я", 2000), limit: 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := truncate(tt.in, tt.limit)
			assert.LessOrEqual(t, utf8.RuneCountInString(out), tt.limit)
			if utf8.RuneCountInString(tt.in) <= tt.limit {
				assert.Equal(t, tt.in, out)
			} else {
				assert.True(t, strings.HasSuffix(out, ellipsis))
			}
		})
	}
}

func TestAnketaSummary(t *testing.T) {
	a := &storage.Anketa{
		UserID: 100, Username: "ivan_fit", Name: "Ivan",
		Age: 30, Height: 180, Weight: 80,
		Goals: "muscle gain", Injuries: "none",
	}
	s := anketaSummary(a)
	assert.Contains(t, s, "@ivan_fit")
	assert.Contains(t, s, "ID: 100")
	assert.Contains(t, s, "Send '+' to generate a plan.")
}

func TestPlanPreviewBounded(t *testing.T) {
	a := &storage.Anketa{UserID: 7, Username: "client_one"}
	long := strings.Repeat("plan ", 1000)

	s := planPreview(a, long)
	assert.Contains(t, s, ellipsis)
	assert.Less(t, utf8.RuneCountInString(s), previewLimit+200, "preview framing must stay small")

	// Underscores in usernames would otherwise break Markdown parsing.
	assert.Contains(t, s, `client\_one`)
}

func TestGenerationFailedText(t *testing.T) {
	genErr := &planner.GenerationError{Reason: planner.ReasonTimeout}
	assert.Equal(t, "⚠️ plan generation failed: timeout", generationFailed(genErr))

	plain := errors.New("boom")
	assert.Equal(t, "⚠️ plan generation failed: boom", generationFailed(plain))
}

func TestPendingEdits(t *testing.T) {
	p := NewPendingEdits()
	assert.Zero(t, p.Len())

	first := &PendingEdit{TargetID: 1}
	second := &PendingEdit{TargetID: 2}

	p.Put(10, first)
	p.Put(10, second)
	assert.Equal(t, 1, p.Len(), "at most one pending edit per trainer")

	got, ok := p.Get(10)
	assert.True(t, ok)
	assert.Same(t, second, got, "a second request overwrites the first")

	p.Delete(10)
	_, ok = p.Get(10)
	assert.False(t, ok)
}
