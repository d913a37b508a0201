package bot

import (
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/aifit/coachbot/app/service"
	"github.com/aifit/coachbot/core/logger"
	tghelpers "github.com/aifit/coachbot/core/telegram/helpers"
	"github.com/aifit/coachbot/core/telegram/state"
)

// Intake flow states, walked in fixed order with no branching.
const (
	StateIntakeName     state.State = "intake_name"
	StateIntakeAge      state.State = "intake_age"
	StateIntakeHeight   state.State = "intake_height"
	StateIntakeWeight   state.State = "intake_weight"
	StateIntakeGoals    state.State = "intake_goals"
	StateIntakeInjuries state.State = "intake_injuries"
)

// Temp-data keys for answers accumulated across intake states.
const (
	keyName   = "intake.name"
	keyAge    = "intake.age"
	keyHeight = "intake.height"
	keyWeight = "intake.weight"
	keyGoals  = "intake.goals"
)

func (b *Bot) registerIntakeStates() {
	state.RegisterHandler(StateIntakeName, b.intakeStep(keyName, StateIntakeAge, msgAskAge, false))
	state.RegisterHandler(StateIntakeAge, b.intakeStep(keyAge, StateIntakeHeight, msgAskHeight, true))
	state.RegisterHandler(StateIntakeHeight, b.intakeStep(keyHeight, StateIntakeWeight, msgAskWeight, true))
	state.RegisterHandler(StateIntakeWeight, b.intakeStep(keyWeight, StateIntakeGoals, msgAskGoals, true))
	state.RegisterHandler(StateIntakeGoals, b.intakeStep(keyGoals, StateIntakeInjuries, msgAskInjury, false))
	state.RegisterHandler(StateIntakeInjuries, b.intakeFinish)
}

// handleStart resets any active flow and begins the questionnaire.
func (b *Bot) handleStart(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return tghelpers.SendText(c, msgAnonymous)
	}
	b.fsm.Clear(user.ID)
	b.fsm.SetState(user.ID, StateIntakeName)
	return tghelpers.SendText(c, msgGreeting)
}

// intakeStep stores the answer under key, prompts for the next field, and
// advances the state. Numeric steps re-prompt in place on bad input.
func (b *Bot) intakeStep(key string, next state.State, nextPrompt string, numeric bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil {
			return tghelpers.SendText(c, msgAnonymous)
		}
		answer := c.Text()
		if numeric {
			if _, err := service.ParseField(key, answer); err != nil {
				return tghelpers.SendText(c, msgBadNumber)
			}
		}
		b.fsm.SetTemp(user.ID, key, answer)
		b.fsm.SetState(user.ID, next)
		return tghelpers.SendText(c, nextPrompt)
	}
}

// intakeFinish persists the accumulated record, notifies the trainer, and
// resets the flow to idle.
func (b *Bot) intakeFinish(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return tghelpers.SendText(c, msgAnonymous)
	}
	ctx := tghelpers.BuildContext(c)

	draft := service.IntakeDraft{
		UserID:   user.ID,
		Username: user.Username,
		Name:     b.tempString(user.ID, keyName),
		Age:      b.tempString(user.ID, keyAge),
		Height:   b.tempString(user.ID, keyHeight),
		Weight:   b.tempString(user.ID, keyWeight),
		Goals:    b.tempString(user.ID, keyGoals),
		Injuries: c.Text(),
	}

	a, err := b.anketas.SubmitIntake(ctx, draft)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			// Steps validate numerics on entry, so this only fires when an
			// answer was skipped entirely. Restart the failing question.
			b.fsm.SetState(user.ID, stateForField(vErr.Field))
			return tghelpers.SendText(c, msgBadNumber)
		}
		b.fsm.Clear(user.ID)
		return tghelpers.SendText(c, msgSaveFailed)
	}
	b.fsm.Clear(user.ID)

	if err := b.sendToTrainer(c, anketaSummary(a)); err != nil {
		logger.Warn(ctx, "tg", "intake.notify",
			slog.Int64("user_id", a.UserID),
			slog.String("err", err.Error()),
		)
	}
	return tghelpers.SendText(c, msgIntakeDone)
}

func (b *Bot) tempString(userID int64, key string) string {
	v, ok := b.fsm.GetTemp(userID, key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func stateForField(field string) state.State {
	switch field {
	case keyAge, "age":
		return StateIntakeAge
	case keyHeight, "height":
		return StateIntakeHeight
	case keyWeight, "weight":
		return StateIntakeWeight
	default:
		return StateIntakeName
	}
}
