package ai

import (
	"strings"

	"github.com/rafiq-chat/backend/internal/model/chat"
	"github.com/rafiq-chat/backend/internal/model/persona"
)

// FormatHistory renders the transcript one turn per line, labelled with the
// persona's speaker names. Turn text is inserted verbatim.
func FormatHistory(p persona.Persona, turns []chat.Turn) string {
	if len(turns) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, turn := range turns {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(speakerLabel(p, turn.Role))
		builder.WriteString(": ")
		builder.WriteString(turn.Text)
	}
	return builder.String()
}

func speakerLabel(p persona.Persona, role chat.Role) string {
	if role == chat.RoleAssistant {
		return p.AssistantLabel
	}
	return p.UserLabel
}
