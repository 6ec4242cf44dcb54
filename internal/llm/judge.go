package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docqa/internal/domain"
)

const graderSystemPrompt = `You are a grader assessing the relevance of a retrieved passage to a user question.
If the passage contains keywords or semantic meaning related to the question, grade it as relevant.
Reply with a JSON object of the form {"binary_score": "yes"} or {"binary_score": "no"} and nothing else.`

// Judge grades one passage against one question via the chat client.
// Each judgment depends only on (question, passage).
type Judge struct {
	client *Client
}

// NewJudge creates a relevance judge over the chat client.
func NewJudge(client *Client) *Judge {
	return &Judge{client: client}
}

// Judge returns whether the passage is relevant to the question.
func (j *Judge) Judge(ctx context.Context, question string, passage domain.Passage) (bool, error) {
	user := fmt.Sprintf("Passage:\n\n%s\n\nQuestion: %s", passage.Text, question)
	reply, err := j.client.Complete(ctx, graderSystemPrompt, user)
	if err != nil {
		return false, err
	}
	return parseVerdict(reply)
}

// parseVerdict extracts a binary score from the grader reply. It accepts
// the requested JSON shape, JSON wrapped in code fences, or a bare yes/no.
func parseVerdict(reply string) (bool, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var out struct {
		BinaryScore string `json:"binary_score"`
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil && out.BinaryScore != "" {
		return strings.EqualFold(out.BinaryScore, "yes"), nil
	}

	switch strings.ToLower(strings.Trim(cleaned, `"'.`)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("unparseable grader reply: %q", reply)
}
