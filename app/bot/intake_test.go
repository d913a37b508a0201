package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aifit/coachbot/app/service"
)

func (e *testEnv) answer(t *testing.T, text string) *fakeContext {
	t.Helper()
	c := e.clientCtx(text)
	require.NoError(t, e.bot.fsm.ManagerHandler(c))
	return c
}

func TestIntakeHappyPath(t *testing.T) {
	e := newTestBot(t)

	start := e.clientCtx("/start")
	require.NoError(t, e.bot.handleStart(start))
	assert.Equal(t, []string{msgGreeting}, start.replies)
	assert.Equal(t, StateIntakeName, e.bot.fsm.GetState(testClientID))

	assert.Equal(t, msgAskAge, e.answer(t, "Ivan").lastReply())
	assert.Equal(t, msgAskHeight, e.answer(t, "30").lastReply())
	assert.Equal(t, msgAskWeight, e.answer(t, "180").lastReply())
	assert.Equal(t, msgAskGoals, e.answer(t, "80").lastReply())
	assert.Equal(t, msgAskInjury, e.answer(t, "muscle gain").lastReply())

	final := e.answer(t, "none")
	assert.Equal(t, msgIntakeDone, final.lastReply())

	// Questionnaire persisted with validated numerics.
	require.Len(t, e.anketas.rows, 1)
	a := e.anketas.rows[0]
	assert.Equal(t, "Ivan", a.Name)
	assert.Equal(t, 30, a.Age)
	assert.Equal(t, 180, a.Height)
	assert.Equal(t, 80, a.Weight)
	assert.Equal(t, "muscle gain", a.Goals)
	assert.Equal(t, "none", a.Injuries)

	// Trainer was notified with the summary and the "+" hint.
	notes := e.api.sentTo(testTrainerID)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "@ivan_fit")
	assert.Contains(t, notes[0], "Send '+' to generate a plan.")

	// Flow is finished: state cleared, next text is not an intake answer.
	assert.False(t, e.bot.fsm.InProgress(testClientID))
}

func TestIntakeRejectsBadNumberInPlace(t *testing.T) {
	e := newTestBot(t)
	require.NoError(t, e.bot.handleStart(e.clientCtx("/start")))

	e.answer(t, "Ivan") // now at age

	bad := e.answer(t, "thirty")
	assert.Equal(t, msgBadNumber, bad.lastReply())
	assert.Equal(t, StateIntakeAge, e.bot.fsm.GetState(testClientID), "state must not advance")

	ok := e.answer(t, "30")
	assert.Equal(t, msgAskHeight, ok.lastReply())
	assert.Equal(t, StateIntakeHeight, e.bot.fsm.GetState(testClientID))
}

func TestIntakeRestartDiscardsProgress(t *testing.T) {
	e := newTestBot(t)
	require.NoError(t, e.bot.handleStart(e.clientCtx("/start")))
	e.answer(t, "Ivan")
	e.answer(t, "30")

	// /start mid-flow resets to the first question.
	require.NoError(t, e.bot.handleStart(e.clientCtx("/start")))
	assert.Equal(t, StateIntakeName, e.bot.fsm.GetState(testClientID))

	_, ok := e.bot.fsm.GetTemp(testClientID, keyName)
	assert.False(t, ok, "previous answers must be discarded")
}

func TestIntakeSaveFailure(t *testing.T) {
	e := newTestBot(t)
	e.anketas.insertErr = assert.AnError

	require.NoError(t, e.bot.handleStart(e.clientCtx("/start")))
	e.answer(t, "Ivan")
	e.answer(t, "30")
	e.answer(t, "180")
	e.answer(t, "80")
	e.answer(t, "muscle gain")

	final := e.answer(t, "none")
	assert.Equal(t, msgSaveFailed, final.lastReply())
	assert.False(t, e.bot.fsm.InProgress(testClientID), "failed save still ends the flow")
	assert.Empty(t, e.api.sentTo(testTrainerID))
}

func TestIntakeAnonymousSender(t *testing.T) {
	e := newTestBot(t)
	c := e.clientCtx("/start")
	c.sender = nil

	require.NoError(t, e.bot.handleStart(c))
	assert.Equal(t, []string{msgAnonymous}, c.replies)
}

func TestIntakeUsernameSentinel(t *testing.T) {
	e := newTestBot(t)
	require.NoError(t, e.bot.handleStart(e.clientCtx("/start")))
	e.answer(t, "Ivan")
	e.answer(t, "30")
	e.answer(t, "180")
	e.answer(t, "80")
	e.answer(t, "muscle gain")

	c := e.clientCtx("none")
	c.sender.Username = ""
	require.NoError(t, e.bot.fsm.ManagerHandler(c))

	require.Len(t, e.anketas.rows, 1)
	assert.Equal(t, service.UsernameNotProvided, e.anketas.rows[0].Username)
}
