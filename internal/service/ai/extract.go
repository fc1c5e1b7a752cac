package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/linyuhan/crmbridge/internal/model/lead"
)

// ErrNoLeadBlock means the extraction response held no brace-delimited block.
var ErrNoLeadBlock = errors.New("ai: no structured block in extraction response")

// Models often wrap the requested JSON in prose, so the parser scans for the
// first opening brace through the last closing one. Known limitation: text
// containing stray braces before the intended block defeats this.
var bracePattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseLeadBlock locates and parses the structured lead block inside a
// free-form extraction response.
func ParseLeadBlock(text string) (lead.Lead, error) {
	match := bracePattern.FindString(text)
	if match == "" {
		return lead.Lead{}, ErrNoLeadBlock
	}

	var parsed lead.Lead
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return lead.Lead{}, fmt.Errorf("ai: parse structured block: %w", err)
	}
	return parsed, nil
}
