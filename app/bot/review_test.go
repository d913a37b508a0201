package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/aifit/coachbot/app/planner"
	"github.com/aifit/coachbot/app/storage"
)

func TestPlusTriggerPresentsPlan(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	c := e.trainerCtx("+")
	require.NoError(t, e.bot.handleTrainerText(c))

	assert.Equal(t, 1, e.gen.genCalls)

	previews := e.api.sentTo(testTrainerID)
	require.Len(t, previews, 1)
	assert.Contains(t, previews[0], "PLAN")
	assert.Contains(t, previews[0], "@ivan\\_fit")
	assert.Equal(t, msgPlanSent, c.lastReply())
}

func TestPlusTriggerWithoutAnketa(t *testing.T) {
	e := newTestBot(t)

	c := e.trainerCtx("+")
	require.NoError(t, e.bot.handleTrainerText(c))

	assert.Equal(t, msgNoAnketa, c.lastReply())
	assert.Zero(t, e.gen.genCalls)
}

func TestPlusFromClientChatIgnored(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	c := e.clientCtx("+")
	require.NoError(t, e.bot.handleTrainerText(c))

	assert.Empty(t, c.replies)
	assert.Zero(t, e.gen.genCalls)
}

func TestCheckPlanCommand(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	c := e.trainerCtx("/check_plan")
	require.NoError(t, e.bot.handleCheckPlan(c))

	assert.Equal(t, 1, e.gen.genCalls)
	assert.Len(t, e.api.sentTo(testTrainerID), 1)
}

func TestApprove(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	c := e.trainerCtx("")
	require.NoError(t, e.bot.handleApprove(c))

	// Plan stored as approved without feedback.
	require.Len(t, e.plans.rows, 1)
	p := e.plans.rows[0]
	assert.Equal(t, testClientID, p.UserID)
	assert.Equal(t, storage.PlanStatusApproved, p.Status)
	assert.Empty(t, p.TrainerFeedback)

	// Full plan delivered to the client.
	delivered := e.api.sentTo(testClientID)
	require.Len(t, delivered, 1)
	assert.Contains(t, delivered[0], "PLAN")
	assert.Contains(t, delivered[0], "approved")

	// Review message replaced with a terminal confirmation.
	require.Len(t, c.edits, 1)
	assert.Equal(t, approvedConfirmation(testClientID), c.edits[0])
}

func TestApproveFromClientChatIgnored(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	c := e.clientCtx("")
	require.NoError(t, e.bot.handleApprove(c))

	assert.Empty(t, e.plans.rows)
	assert.Empty(t, c.edits)
}

func TestApproveGenerationFailure(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()
	e.gen.err = &planner.GenerationError{Reason: planner.ReasonTimeout}

	c := e.trainerCtx("")
	require.NoError(t, e.bot.handleApprove(c))

	assert.Equal(t, "⚠️ plan generation failed: timeout", c.lastReply())
	assert.Empty(t, e.plans.rows, "failed generation must not be persisted")
	assert.Empty(t, e.api.sentTo(testClientID))
}

func TestApproveDeliveryFailure(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()
	e.api.sendErr = assert.AnError

	c := e.trainerCtx("")
	require.NoError(t, e.bot.handleApprove(c))

	// Plan is saved even when Telegram delivery fails; the trainer sees why.
	require.Len(t, e.plans.rows, 1)
	require.NotEmpty(t, c.replies)
	assert.Contains(t, c.lastReply(), "Could not deliver")
}

func TestRequestEditsThenFeedback(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	press := e.trainerCtx("")
	require.NoError(t, e.bot.handleRequestEdits(press))

	// Review message switched to the feedback prompt with a cancel option.
	require.Len(t, press.edits, 1)
	assert.Equal(t, editPromptMessage(testClientID), press.edits[0])

	pe, ok := e.bot.pending.Get(testTrainerID)
	require.True(t, ok)
	assert.Equal(t, testClientID, pe.TargetID)

	fb := e.trainerCtx("more cardio, less bench")
	require.NoError(t, e.bot.handleTrainerText(fb))

	// Revision generated from the trainer's words.
	require.Len(t, e.gen.edits, 1)
	assert.Equal(t, "more cardio, less bench", e.gen.edits[0])

	// Stored as edited with the feedback attached.
	require.Len(t, e.plans.rows, 1)
	p := e.plans.rows[0]
	assert.Equal(t, storage.PlanStatusEdited, p.Status)
	assert.Equal(t, "more cardio, less bench", p.TrainerFeedback)

	// Trainer sees the bounded updated preview, client gets the full text.
	require.NotEmpty(t, fb.replies)
	assert.Contains(t, fb.replies[0], "Updated plan")
	delivered := e.api.sentTo(testClientID)
	require.Len(t, delivered, 1)
	assert.Contains(t, delivered[0], "revised: more cardio, less bench")

	// Anchor message finalized, pending cleared.
	require.Len(t, e.api.edited, 1)
	assert.Equal(t, appliedConfirmation(testClientID), e.api.edited[0])
	_, ok = e.bot.pending.Get(testTrainerID)
	assert.False(t, ok)
}

func TestSecondRequestEditsOverwrites(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	require.NoError(t, e.bot.handleRequestEdits(e.trainerCtx("")))
	require.NoError(t, e.bot.handleRequestEdits(e.trainerCtx("")))

	assert.Equal(t, 1, e.bot.pending.Len())
}

func TestCancelEdits(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()
	require.NoError(t, e.bot.handleRequestEdits(e.trainerCtx("")))

	c := e.trainerCtx("")
	require.NoError(t, e.bot.handleCancelEdits(c))

	_, ok := e.bot.pending.Get(testTrainerID)
	assert.False(t, ok)
	require.NotEmpty(t, c.edits)
	assert.Equal(t, msgEditCancelled, c.edits[len(c.edits)-1])
}

func TestFeedbackWithoutPendingIgnored(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	c := e.trainerCtx("random trainer chatter")
	require.NoError(t, e.bot.handleTrainerText(c))

	assert.Empty(t, c.replies)
	assert.Empty(t, e.gen.edits)
}

func TestEmptyFeedbackRejected(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()
	require.NoError(t, e.bot.handleRequestEdits(e.trainerCtx("")))

	c := e.trainerCtx("   ")
	require.NoError(t, e.bot.handleTrainerText(c))

	assert.Equal(t, msgFeedbackNeeded, c.lastReply())
	_, ok := e.bot.pending.Get(testTrainerID)
	assert.True(t, ok, "pending edit survives a rejected answer")
}

func TestPlusWhileEditPendingStaysPending(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()
	require.NoError(t, e.bot.handleRequestEdits(e.trainerCtx("")))

	// "+" is the generate trigger, never feedback text.
	c := e.trainerCtx("+")
	require.NoError(t, e.bot.handleTrainerText(c))

	assert.Equal(t, 1, e.gen.genCalls)
	assert.Empty(t, e.gen.edits)
	_, ok := e.bot.pending.Get(testTrainerID)
	assert.True(t, ok)
}

func TestGlobalLatestAnketaIsReviewed(t *testing.T) {
	e := newTestBot(t)
	e.seedAnketa()

	other := &storage.Anketa{UserID: 200, Username: "late_user", Name: "Petr", Age: 25, Height: 175, Weight: 70}
	e.anketas.rows = append(e.anketas.rows, other)

	// Button rendered for the first questionnaire, pressed after a newer one.
	c := e.trainerCtx("")
	c.cb = &tele.Callback{Unique: cbApprove, Data: "\fapprove|100"}
	require.NoError(t, e.bot.handleApprove(c))

	// The most recent questionnaire system-wide wins, regardless of which
	// review message the button came from.
	require.Len(t, e.plans.rows, 1)
	assert.Equal(t, int64(200), e.plans.rows[0].UserID)
	assert.Len(t, e.api.sentTo(200), 1)
	assert.Empty(t, e.api.sentTo(testClientID))
}
