package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
)

// defaultConfidence is used when the model omits a confidence score.
const defaultConfidence = 0.6

// modelAnswer is the JSON object the prompt asks for.
type modelAnswer struct {
	Confidence *float64 `json:"confidence"`
	Category   string   `json:"category"`
	Reason     string   `json:"reason"`
	Action     string   `json:"action"`
}

// cleanMarkdownWrapper strips a ```json fence some models add despite instructions.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	} else {
		content = strings.TrimPrefix(content, "json")
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// parseAnswer decodes a model reply into a modelAnswer.
func parseAnswer(content string) (modelAnswer, error) {
	var answer modelAnswer

	content = cleanMarkdownWrapper(content)
	if content == "" {
		return answer, fmt.Errorf("%w: empty response", common.ErrClassificationFailed)
	}

	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return answer, fmt.Errorf("%w: failed to parse JSON response: %v", common.ErrClassificationFailed, err)
	}

	answer.Category = strings.TrimSpace(answer.Category)
	if answer.Category == "" {
		return answer, fmt.Errorf("%w: no category found in response", common.ErrClassificationFailed)
	}

	return answer, nil
}
