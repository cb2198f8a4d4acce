package usecase

import (
	"strings"

	"krakengpt/internal/domain"
)

// BaseInstructions is the default system prompt sent upstream when the
// caller supplies none of its own.
const BaseInstructions = "Sei KrakenGPT, un assistente utile e preciso. Rispondi in modo chiaro e conciso alla domanda dell'utente."

const (
	contextHeader = "=== CONTESTO DAI DOCUMENTI DEL PROGETTO ==="
	contextFooter = "=== FINE CONTESTO ==="

	contextDirectives = "Usa il contesto qui sopra solo se pertinente all'ultimo messaggio dell'utente. " +
		"Rispondi sempre alla domanda corrente: non proseguire ciecamente argomenti precedenti della conversazione."
)

// AssembleMessages produces the message sequence sent upstream. Any
// system-role messages supplied by the caller are stripped and replaced with
// exactly one synthesized system message; all other messages keep their
// original order. When context is non-empty it is spliced into the system
// message inside a delimited section, together with the usage directives.
func AssembleMessages(base, context string, messages []domain.Message) []domain.Message {
	var b strings.Builder
	b.WriteString(base)
	if context != "" {
		b.WriteString("\n\n")
		b.WriteString(contextHeader)
		b.WriteString("\n")
		b.WriteString(context)
		b.WriteString("\n")
		b.WriteString(contextFooter)
		b.WriteString("\n\n")
		b.WriteString(contextDirectives)
	}

	out := make([]domain.Message, 0, len(messages)+1)
	out = append(out, domain.Message{Role: domain.RoleSystem, Content: b.String()})
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// LatestUserMessage returns the content of the last user-role message, or
// the empty string when there is none. It drives retrieval for the current
// turn.
func LatestUserMessage(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
