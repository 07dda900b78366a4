package chat

import (
	"fmt"

	"github.com/natebrady-cyera/deep-thought/internal/db/models"
)

const salesAssistantTemplate = `You are the assistant inside Deep Thought, a deal intelligence workspace used by Cyera's sales team (Cyera sells data security: DSPM and DLP).

You help sales professionals understand and advance enterprise security deals using the deal canvas below.

## Current Deal Context

%s
## What You Can Do

1. Deal analysis: summarize where the deal stands from the canvas.
2. Strategy: recommend next moves and who to engage.
3. Discovery: point out questions that still need answers.
4. Risk: call out anything that could stall or kill the deal.
5. Product fit: connect the customer's needs to Cyera's platform.

## Guidelines

- Keep answers short and actionable.
- Cite canvas details when they support a point.
- Ask for clarification when the canvas lacks what you need.
- Help the seller prioritize.`

const whatsNextTemplate = `Review the deal canvas below and give a short, concrete plan for moving this deal forward.

%s
Structure the answer as:

1. Immediate next steps (the two or three actions that matter most)
2. Open questions (what the team still has to learn)
3. Risks (what could derail the deal)
4. Focus areas (where to spend time and energy)

Stay focused and actionable.`

// SystemPrompt returns the system prompt for a chat type. Types without a
// template receive the assembled context unchanged.
func SystemPrompt(chatType models.ChatType, canvasContext string) string {
	switch chatType {
	case models.ChatTypeSalesAssistant:
		return fmt.Sprintf(salesAssistantTemplate, canvasContext)
	case models.ChatTypeWhatsNext:
		return fmt.Sprintf(whatsNextTemplate, canvasContext)
	default:
		return canvasContext
	}
}

// DefaultName is used when a chat is created without a name.
func DefaultName(chatType models.ChatType) string {
	switch chatType {
	case models.ChatTypeSalesAssistant:
		return "Sales Assistant"
	case models.ChatTypeWhatsNext:
		return "What's Next"
	case models.ChatTypePersona:
		return "Persona"
	default:
		return "Chat"
	}
}
