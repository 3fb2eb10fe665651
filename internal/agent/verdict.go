package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// Status is the tri-state validation outcome, plus ERROR for a validation
// run that failed outright.
type Status string

const (
	StatusValid       Status = "VALID"
	StatusInvalid     Status = "INVALID"
	StatusNeedsReview Status = "NEEDS_REVIEW"
	StatusError       Status = "ERROR"
)

// DefaultConfidence is assumed when the agent's answer carries no
// recognizable numeric score.
const DefaultConfidence = 50

// Verdict is the structured validation outcome for one record. It is
// consumed once by the decision engine and not persisted verbatim.
type Verdict struct {
	Status        Status   `json:"status"`
	Confidence    int      `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	Issues        []string `json:"issues"`
	ReceiptID     int64    `json:"receipt_id"`
	ReceiptNumber string   `json:"receipt_number"`
}

var (
	confidenceRe = regexp.MustCompile(`(?i)(\d+)\s*(?:%|percent|confidence|score)`)

	issuePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Missing[^:\n]*:?\s*([^\n]+)`),
		regexp.MustCompile(`(?i)Invalid[^:\n]*:?\s*([^\n]+)`),
		regexp.MustCompile(`(?i)ERROR[^:\n]*:?\s*([^\n]+)`),
		regexp.MustCompile(`(?i)VIOLATION[^:\n]*:?\s*([^\n]+)`),
	}
)

// parseVerdict turns the agent's final answer text into a Verdict.
//
// Keyword resolution gives an explicit INVALID marker precedence over a
// bare VALID mention, so text containing both resolves to invalid.
// Confidence falls back to DefaultConfidence when no score pattern
// matches; issues are extracted by phrase patterns and deduplicated by
// list membership only.
func parseVerdict(output string) Verdict {
	upper := strings.ToUpper(output)

	status := StatusNeedsReview
	switch {
	case strings.Contains(upper, string(StatusInvalid)):
		status = StatusInvalid
	case strings.Contains(upper, string(StatusValid)):
		status = StatusValid
	}

	confidence := DefaultConfidence
	if m := confidenceRe.FindStringSubmatch(output); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			confidence = clampConfidence(n)
		}
	}

	var issues []string
	if strings.Contains(output, "INVALID") || strings.Contains(output, "ERROR") || strings.Contains(output, "VIOLATION") {
		for _, pattern := range issuePatterns {
			for _, m := range pattern.FindAllStringSubmatch(output, -1) {
				issue := strings.TrimSpace(m[1])
				if issue != "" && !containsString(issues, issue) {
					issues = append(issues, issue)
				}
			}
		}
	}

	return Verdict{
		Status:     status,
		Confidence: confidence,
		Reasoning:  output,
		Issues:     issues,
	}
}

func clampConfidence(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func containsString(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
