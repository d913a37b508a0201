package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/aifit/coachbot/app/planner"
	"github.com/aifit/coachbot/app/storage"
	"github.com/aifit/coachbot/core/logger"
	"github.com/aifit/coachbot/core/telegram/callbacks"
	tghelpers "github.com/aifit/coachbot/core/telegram/helpers"
	"github.com/aifit/coachbot/core/telegram/keyboard"
)

// Callback keys for the review buttons.
const (
	cbApprove    = "approve"
	cbEdit       = "edit"
	cbCancelEdit = "cancel_edit"
)

// reviewMarkup carries the target user id in the button payloads. Handlers
// always act on the latest questionnaire; the payload exists to flag when a
// stale button is pressed after a newer questionnaire arrived.
func reviewMarkup(targetID int64) *tele.ReplyMarkup {
	payload := strconv.FormatInt(targetID, 10)
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Approve", Unique: cbApprove, Data: payload},
		{Text: "📝 Request edits", Unique: cbEdit, Data: payload},
	})
}

func cancelMarkup(targetID int64) *tele.ReplyMarkup {
	return keyboard.SingleCancelMarkup(cbCancelEdit, strconv.FormatInt(targetID, 10))
}

// warnStaleButton logs when the pressed button was rendered for a different
// questionnaire than the one acted on.
func warnStaleButton(ctx context.Context, c tele.Context, actedOn int64) {
	buttonTarget, err := callbacks.PayloadInt64(c)
	if err != nil || buttonTarget == 0 || buttonTarget == actedOn {
		return
	}
	logger.Warn(ctx, "tg", "review.stale_button",
		slog.Int64("button_target", buttonTarget),
		slog.Int64("acted_on", actedOn),
	)
}

func (b *Bot) trainerChat() int64 {
	return b.cfg.Trainer.ChatID
}

func (b *Bot) fromTrainerChat(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.ID == b.trainerChat()
}

func (b *Bot) sendToTrainer(c tele.Context, text string, opts ...interface{}) error {
	_, err := c.Bot().Send(tele.ChatID(b.trainerChat()), text, opts...)
	return err
}

// presentPlan sends the trainer a bounded preview with review buttons.
func (b *Bot) presentPlan(c tele.Context, a *storage.Anketa, planText string) error {
	return b.sendToTrainer(c, planPreview(a, planText), &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: reviewMarkup(a.UserID),
	})
}

// handleApprove persists the approved plan, delivers the full text to the
// client, and replaces the review message with a terminal confirmation.
func (b *Bot) handleApprove(c tele.Context) error {
	if !b.fromTrainerChat(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	a, err := b.latestAnketa(ctx, c)
	if err != nil || a == nil {
		return err
	}
	warnStaleButton(ctx, c, a.UserID)

	planText, err := b.gen.Generate(ctx, a)
	if err != nil {
		return tghelpers.SendText(c, generationFailed(err))
	}

	if _, err := b.plans.Save(ctx, a.UserID, planText, storage.PlanStatusApproved, ""); err != nil {
		return tghelpers.SendText(c, msgSaveFailed)
	}

	if _, err := c.Bot().Send(tele.ChatID(a.UserID), approvedPlanMessage(planText), &tele.SendOptions{ParseMode: tele.ModeMarkdown}); err != nil {
		_ = tghelpers.SendText(c, deliveryFailed(err))
	}

	// Edit with no markup removes the buttons.
	return tghelpers.EditMD(c, approvedConfirmation(a.UserID))
}

// handleRequestEdits records a PendingEdit for this trainer and switches the
// review message to the feedback prompt.
func (b *Bot) handleRequestEdits(c tele.Context) error {
	if !b.fromTrainerChat(c) {
		return nil
	}
	trainer := c.Sender()
	if trainer == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	a, err := b.latestAnketa(ctx, c)
	if err != nil || a == nil {
		return err
	}
	warnStaleButton(ctx, c, a.UserID)

	shown := ""
	if c.Message() != nil {
		shown = c.Message().Text
	}
	b.pending.Put(trainer.ID, &PendingEdit{
		Anchor:   c.Message(),
		TargetID: a.UserID,
		Anketa:   a,
		PlanText: shown,
	})

	return tghelpers.EditMD(c, editPromptMessage(a.UserID), cancelMarkup(a.UserID))
}

// handleCancelEdits drops the pending edit and restores the review buttons.
func (b *Bot) handleCancelEdits(c tele.Context) error {
	if !b.fromTrainerChat(c) {
		return nil
	}
	if trainer := c.Sender(); trainer != nil {
		b.pending.Delete(trainer.ID)
	}
	targetID, err := callbacks.PayloadInt64(c)
	if err != nil {
		targetID = 0
	}
	return tghelpers.EditMD(c, msgEditCancelled, reviewMarkup(targetID))
}

// handleTrainerText routes free text in the trainer chat: the "+" trigger is
// matched first, everything else is treated as revision feedback. Text from
// other chats falls through silently.
func (b *Bot) handleTrainerText(c tele.Context) error {
	if !b.fromTrainerChat(c) {
		return nil
	}
	text := strings.TrimSpace(c.Text())
	if text == "+" {
		return b.runAdHocReview(c)
	}
	return b.handleFeedback(c, text)
}

func (b *Bot) handleFeedback(c tele.Context, text string) error {
	trainer := c.Sender()
	if trainer == nil {
		return nil
	}
	pe, ok := b.pending.Get(trainer.ID)
	if !ok {
		// Trainer chatter with no pending edit is deliberately ignored.
		return nil
	}
	if text == "" {
		return tghelpers.SendText(c, msgFeedbackNeeded)
	}
	ctx := tghelpers.BuildContext(c)

	planText, err := b.gen.GenerateWithEdit(ctx, pe.Anketa, text)
	if err != nil {
		if errors.Is(err, planner.ErrFeedbackRequired) {
			return tghelpers.SendText(c, msgFeedbackNeeded)
		}
		return tghelpers.SendText(c, generationFailed(err))
	}

	if _, err := b.plans.Save(ctx, pe.TargetID, planText, storage.PlanStatusEdited, text); err != nil {
		return tghelpers.SendText(c, msgSaveFailed)
	}

	if err := tghelpers.SendMD(c, updatedPlanPreview(planText), reviewMarkup(pe.TargetID)); err != nil {
		logger.Warn(ctx, "tg", "review.present",
			slog.Int64("trainer_id", trainer.ID),
			slog.String("err", err.Error()),
		)
	}

	if _, err := c.Bot().Send(tele.ChatID(pe.TargetID), editedPlanMessage(planText), &tele.SendOptions{ParseMode: tele.ModeMarkdown}); err != nil {
		_ = tghelpers.SendText(c, deliveryFailed(err))
	}

	b.pending.Delete(trainer.ID)

	if pe.Anchor != nil {
		if _, err := c.Bot().Edit(pe.Anchor, appliedConfirmation(pe.TargetID)); err != nil {
			logger.Debug(ctx, "tg", "review.anchor",
				slog.String("err", err.Error()),
			)
		}
	}
	return nil
}

// handleCheckPlan is the trainer command variant of the "+" trigger.
func (b *Bot) handleCheckPlan(c tele.Context) error {
	return b.runAdHocReview(c)
}

// runAdHocReview generates a plan from the latest questionnaire and presents
// it for review, independent of any pending state.
func (b *Bot) runAdHocReview(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	a, err := b.latestAnketa(ctx, c)
	if err != nil || a == nil {
		return err
	}

	planText, err := b.gen.Generate(ctx, a)
	if err != nil {
		return tghelpers.SendText(c, generationFailed(err))
	}

	if err := b.presentPlan(c, a, planText); err != nil {
		return err
	}
	return tghelpers.SendText(c, msgPlanSent)
}

// latestAnketa fetches the most recent questionnaire system-wide, not the
// one tied to the review message. With a single active trainer these are
// the same; the lookup is intentionally unscoped.
func (b *Bot) latestAnketa(ctx context.Context, c tele.Context) (*storage.Anketa, error) {
	a, err := b.anketas.LatestGlobal(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, tghelpers.SendText(c, msgNoAnketa)
		}
		return nil, tghelpers.SendText(c, msgSaveFailed)
	}
	return a, nil
}
