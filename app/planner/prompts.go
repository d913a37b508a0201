package planner

import (
	"fmt"
	"strings"

	"github.com/aifit/coachbot/app/storage"
)

const notSpecified = "not specified"

const systemPrompt = `You are a professional fitness coach with a medical background.
Your principles: safety, an individual approach, and scientific grounding.
Create personalized, motivating, and effective training plans.`

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return strings.TrimSpace(s)
}

func numOrDefault(v int) string {
	if v <= 0 {
		return notSpecified
	}
	return fmt.Sprintf("%d", v)
}

// buildPrompt renders the base generation prompt from questionnaire fields.
// The output is deterministic for a given questionnaire.
func buildPrompt(a *storage.Anketa) string {
	var b strings.Builder
	b.WriteString("Create a detailed personalized 4-week fitness plan.\n\n")
	b.WriteString("CLIENT DATA:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orDefault(a.Name))
	fmt.Fprintf(&b, "- Age: %s\n", numOrDefault(a.Age))
	fmt.Fprintf(&b, "- Height: %s cm\n", numOrDefault(a.Height))
	fmt.Fprintf(&b, "- Weight: %s kg\n", numOrDefault(a.Weight))
	fmt.Fprintf(&b, "- Goals: %s\n", orDefault(a.Goals))
	fmt.Fprintf(&b, "- Injuries or health constraints: %s\n", orDefault(a.Injuries))
	b.WriteString("\nPLAN REQUIREMENTS:\n")
	b.WriteString("1. 4 weeks with load progression\n")
	b.WriteString("2. A detailed training schedule\n")
	b.WriteString("3. Concrete exercises with technique notes\n")
	b.WriteString("4. Nutrition recommendations\n")
	b.WriteString("5. Recovery advice\n")
	b.WriteString("6. Safety precautions\n")
	b.WriteString("\nFORMAT: Use Markdown, be structured and motivating.")
	return b.String()
}

// buildEditPrompt renders the revision prompt: a reduced client summary plus
// the trainer's feedback appended to a fresh base task.
func buildEditPrompt(a *storage.Anketa, feedback string) string {
	var b strings.Builder
	b.WriteString("Revise the fitness plan according to the trainer's feedback.\n\n")
	b.WriteString("CLIENT DATA:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orDefault(a.Name))
	fmt.Fprintf(&b, "- Goals: %s\n", orDefault(a.Goals))
	fmt.Fprintf(&b, "- Injuries or health constraints: %s\n", orDefault(a.Injuries))
	b.WriteString("\nTRAINER FEEDBACK:\n")
	b.WriteString(strings.TrimSpace(feedback))
	b.WriteString("\n\nTASK:\n")
	b.WriteString("1. Apply all of the trainer's feedback\n")
	b.WriteString("2. Produce the updated plan\n")
	b.WriteString("3. Keep it safe and effective\n")
	b.WriteString("\nFORMAT: Markdown, with the changes justified.")
	return b.String()
}
