package llm

import (
	"fmt"
	"strings"

	"github.com/dgallion1/legalchunk/internal/chunker"
)

// SystemPrompt frames the assistant for Vietnamese legal questions.
const SystemPrompt = `You are an assistant for questions about Vietnamese legal documents.
Answer in the language of the question. When excerpts are provided, base the answer on them and cite the article (Điều) and chapter (Chương) they come from. If the excerpts do not contain the answer, say so instead of guessing. Keep answers concise.`

// BuildChunkPrompt renders one excerpt with its chapter and article labels.
func BuildChunkPrompt(chapter, article, content string) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	if chapter != "" {
		sb.WriteString(fmt.Sprintf("Chapter: %s\n", chapter))
	}
	sb.WriteString(fmt.Sprintf("Article: %s\n", article))
	sb.WriteString("---\n")
	sb.WriteString(content)
	return sb.String()
}

// BuildMessages assembles the conversation for a question, with optional
// excerpts placed ahead of it in the user turn.
func BuildMessages(question string, excerpts []chunker.Chunk) []Message {
	msgs := []Message{{Role: "system", Content: SystemPrompt}}
	if len(excerpts) == 0 {
		return append(msgs, Message{Role: "user", Content: question})
	}

	var sb strings.Builder
	sb.WriteString("Excerpts:\n\n")
	for i, c := range excerpts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(BuildChunkPrompt(c.Chapter, c.Article, c.Content))
	}
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	return append(msgs, Message{Role: "user", Content: sb.String()})
}
