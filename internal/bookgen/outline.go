package bookgen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Outline is the parsed chapter plan for one book.
type Outline struct {
	BookTitle string           `json:"book_title"`
	Chapters  []OutlineChapter `json:"outline"`
}

// OutlineChapter is one planned chapter with its ordered section list.
type OutlineChapter struct {
	Number      int      `json:"chapter_number"`
	Title       string   `json:"chapter_title"`
	Description string   `json:"chapter_description"`
	Sections    []string `json:"sections"`
}

// MalformedResponseError means the LLM reply held no recoverable JSON payload.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed llm response: %s", e.Reason)
}

var (
	jsonRegionRe = regexp.MustCompile(`(?s)\{.*\}`)
	codeBlockRe  = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
)

// extractJSON pulls the first greedy {...} region out of free-form LLM text,
// unwrapping a surrounding markdown code fence first.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		s = m[1]
	}
	region := jsonRegionRe.FindString(s)
	if region == "" {
		return "", &MalformedResponseError{Reason: "no JSON object detected", Raw: raw}
	}
	return region, nil
}

// parseOutline extracts and decodes the outline payload from a raw LLM reply.
func parseOutline(raw string) (*Outline, error) {
	region, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	var o Outline
	if err := json.Unmarshal([]byte(region), &o); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: raw}
	}
	if len(o.Chapters) == 0 {
		return nil, &MalformedResponseError{Reason: "outline has no chapters", Raw: raw}
	}
	return &o, nil
}
