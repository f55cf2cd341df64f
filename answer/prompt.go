package answer

import (
	"fmt"
	"strings"

	"github.com/stophobia/restai/core"
)

// buildPrompt assembles the user prompt from retrieved context and the
// question. Chunks appear in retrieval order, best match first.
func buildPrompt(question string, chunks []*core.Chunk) string {
	var context strings.Builder
	for _, chunk := range chunks {
		context.WriteString(chunk.Content)
		context.WriteString("\n\n")
	}

	return fmt.Sprintf(`Answer the question based on the given context. If the context is empty or does not contain the information needed, say you don't know instead of guessing.
Context:
%s
Question:
%s
Answer:`, strings.TrimRight(context.String(), "\n"), question)
}

// buildHistory renders prior conversation turns for inclusion in a prompt.
func buildHistory(turns []core.ChatTurn) string {
	if len(turns) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Conversation so far:\n")
	for _, turn := range turns {
		sb.WriteString("User: ")
		sb.WriteString(turn.Question)
		sb.WriteString("\nAssistant: ")
		sb.WriteString(turn.Answer)
		sb.WriteString("\n")
	}
	return sb.String()
}
