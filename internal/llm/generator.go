package llm

import (
	"context"
	"fmt"
	"strings"
)

const generatorSystemPrompt = `You are an assistant for question-answering tasks.
Use the provided pieces of retrieved context to answer the question.
If the context is not relevant or empty, say that you cannot answer based on the provided document.
Keep the answer concise and accurate.`

// Generator produces the final answer from the question and the assembled
// context via the chat client.
type Generator struct {
	client *Client
}

// NewGenerator creates an answer generator over the chat client.
func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// Generate answers the question from the context text.
func (g *Generator) Generate(ctx context.Context, question, contextText string) (string, error) {
	user := fmt.Sprintf("Context:\n\n%s\n\nQuestion: %s", contextText, question)
	reply, err := g.client.Complete(ctx, generatorSystemPrompt, user)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
