package bot

import (
	"fmt"
	"strings"

	"github.com/aifit/coachbot/app/storage"
	"github.com/aifit/coachbot/core/telegram/format"
)

// previewLimit bounds the trainer-facing plan preview. The client always
// receives the full text.
const previewLimit = 1000

const ellipsis = "…"

const (
	msgGreeting  = "Hi! I am your AI coach. Let's start with a short questionnaire. What is your name?"
	msgAskAge    = "How old are you?"
	msgAskHeight = "What is your height (in cm)?"
	msgAskWeight = "What is your weight (in kg)?"
	msgAskGoals  = "What are your goals? (e.g. weight loss, muscle gain, staying in shape)"
	msgAskInjury = "Do you have any injuries or health constraints?"

	msgIntakeDone     = "Thank you! Your questionnaire was sent to the trainer for review."
	msgBadNumber      = "Please enter a non-negative whole number."
	msgAnonymous      = "Sorry, I cannot identify you. Please message me from a regular Telegram account."
	msgSaveFailed     = "Something went wrong while saving your questionnaire. Please try again later."
	msgNoAnketa       = "Error: no questionnaire found."
	msgEditCancelled  = "Edit mode cancelled. Use the buttons to choose an action."
	msgFeedbackNeeded = "Please write concrete feedback."
	msgPlanSent       = "✅ Plan generated and sent for review."
)

// truncate bounds s to limit runes, appending an ellipsis when cut.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + ellipsis
}

func escapeMD(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}

func anketaSummary(a *storage.Anketa) string {
	return fmt.Sprintf(
		"📋 New questionnaire from @%s (ID: %d)\n\n"+
			"Name: %s\nAge: %d\nHeight: %d cm\nWeight: %d kg\nGoals: %s\nInjuries: %s\n\n"+
			"Send '+' to generate a plan.",
		a.Username, a.UserID,
		a.Name, a.Age, a.Height, a.Weight, a.Goals, a.Injuries,
	)
}

func planPreview(a *storage.Anketa, planText string) string {
	return fmt.Sprintf(
		"📋 Draft plan for @%s (ID: %d):\n\n%s\n\n_Press a button below or reply with feedback text._",
		escapeMD(a.Username), a.UserID, truncate(planText, previewLimit),
	)
}

func updatedPlanPreview(planText string) string {
	return "🔄 *Updated plan:*\n\n" + truncate(planText, previewLimit)
}

func approvedPlanMessage(planText string) string {
	return fmt.Sprintf("✅ *Your personal plan is approved!*\n\n%s\n\nContact your trainer with any questions.", planText)
}

func editedPlanMessage(planText string) string {
	return "📋 *Your plan was updated with the trainer's feedback:*\n\n" + planText
}

func approvedConfirmation(userID int64) string {
	return fmt.Sprintf("✅ Plan approved and sent to the user (ID: %d)", userID)
}

func appliedConfirmation(userID int64) string {
	return fmt.Sprintf("✅ Feedback applied and the plan was sent to the user (ID: %d)", userID)
}

func editPromptMessage(userID int64) string {
	return fmt.Sprintf(
		"✏️ *Feedback requested for user ID: %d*\n\nPlease reply to this message with what should change.",
		userID,
	)
}

func deliveryFailed(err error) string {
	return "Could not deliver the plan to the user: " + err.Error()
}

func generationFailed(err error) string {
	msg := err.Error()
	if !strings.HasPrefix(msg, "plan generation failed") {
		msg = "plan generation failed: " + msg
	}
	return "⚠️ " + msg
}
