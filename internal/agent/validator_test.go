package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
	"github.com/fyrsmithlabs/reconciled/internal/rules"
)

// fakeLLM plays back scripted completions and records the prompts it saw.
type fakeLLM struct {
	responses []string
	prompts   []string
	err       error
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}

	var prompt string
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if text, ok := messages[0].Parts[0].(llms.TextContent); ok {
			prompt = text.Text
		}
	}
	f.prompts = append(f.prompts, prompt)

	idx := len(f.prompts) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.responses[idx]}},
	}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func newTestValidator(t *testing.T, llm llms.Model, cfg Config) *Validator {
	t.Helper()
	v, err := NewValidator(llm, rules.NewSet(rules.DefaultLimits(), nil), cfg, nil)
	require.NoError(t, err)
	return v
}

func testRecord() *receipt.Record {
	amount := 2500.0
	month, year := 6, 2024
	employer, office, scheme := int64(1), int64(2), int64(3)
	return &receipt.Record{
		ID:            100,
		ReceiptNumber: "RCP-100",
		Amount:        &amount,
		Status:        receipt.StatusUnreconciled,
		Month:         &month,
		Year:          &year,
		EmployerID:    &employer,
		OfficeID:      &office,
		SchemeID:      &scheme,
		ReceiptType:   "1",
		ApportionType: "Auto",
	}
}

func TestValidateRunsToolThenParsesFinalAnswer(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"Thought: I should check the required fields\nAction: check_receipt_validity\nAction Input: the receipt",
		"Thought: I now know the final answer\nFinal Answer: The receipt is VALID. Confidence: 95%. All checks passed.",
	}}
	v := newTestValidator(t, llm, Config{})

	verdict := v.Validate(context.Background(), testRecord())

	assert.Equal(t, StatusValid, verdict.Status)
	assert.Equal(t, 95, verdict.Confidence)
	assert.Equal(t, int64(100), verdict.ReceiptID)
	assert.Equal(t, "RCP-100", verdict.ReceiptNumber)

	// The second prompt must carry the tool's observation back to the model.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "Observation: VALID: Receipt has all required fields and valid format")
	assert.Contains(t, llm.prompts[0], "RECEIPT_NUMBER: RCP-100")
	assert.Contains(t, llm.prompts[0], "check_duplicate")
}

func TestValidateInvalidMarkerBeatsValidMention(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"Final Answer: The receipt looked VALID at first but is INVALID: Missing required fields: AMOUNT. Confidence: 90%",
	}}
	v := newTestValidator(t, llm, Config{})

	verdict := v.Validate(context.Background(), testRecord())

	assert.Equal(t, StatusInvalid, verdict.Status)
	assert.Equal(t, 90, verdict.Confidence)
	assert.NotEmpty(t, verdict.Issues)
	assert.Contains(t, verdict.Issues, "AMOUNT. Confidence: 90%")
}

func TestValidateConfidenceDefaultsWithoutScore(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"Final Answer: The receipt is VALID and ready for reconciliation.",
	}}
	v := newTestValidator(t, llm, Config{})

	verdict := v.Validate(context.Background(), testRecord())

	assert.Equal(t, StatusValid, verdict.Status)
	assert.Equal(t, DefaultConfidence, verdict.Confidence)
	assert.Empty(t, verdict.Issues)
}

func TestValidateNeitherKeywordIsNeedsReview(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"Final Answer: Unable to reach a conclusion, manual check recommended. 40% certainty.",
	}}
	v := newTestValidator(t, llm, Config{})

	verdict := v.Validate(context.Background(), testRecord())

	assert.Equal(t, StatusNeedsReview, verdict.Status)
	assert.Equal(t, 40, verdict.Confidence)
}

func TestValidateIterationCapYieldsNeedsReview(t *testing.T) {
	// The model never reaches a final answer.
	llm := &fakeLLM{responses: []string{
		"Thought: checking again\nAction: check_business_rules\nAction Input: the receipt",
	}}
	v := newTestValidator(t, llm, Config{MaxIterations: 3})

	verdict := v.Validate(context.Background(), testRecord())

	assert.Equal(t, StatusNeedsReview, verdict.Status)
	assert.Equal(t, DefaultConfidence, verdict.Confidence)
	assert.Contains(t, verdict.Reasoning, "3 iterations")
	assert.Len(t, llm.prompts, 3)
}

func TestValidateBackendErrorIsTerminalErrorVerdict(t *testing.T) {
	llm := &fakeLLM{err: errors.New("request timed out")}
	v := newTestValidator(t, llm, Config{})

	verdict := v.Validate(context.Background(), testRecord())

	assert.Equal(t, StatusError, verdict.Status)
	assert.Equal(t, 0, verdict.Confidence)
	assert.Contains(t, verdict.Reasoning, "request timed out")
	require.Len(t, verdict.Issues, 1)
	assert.Contains(t, verdict.Issues[0], "Validation failed")
}

func TestValidateUnknownToolFeedsObservationBack(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"Thought: trying something\nAction: check_vibes\nAction Input: receipt",
		"Final Answer: VALID, 85% confidence",
	}}
	v := newTestValidator(t, llm, Config{})

	verdict := v.Validate(context.Background(), testRecord())

	assert.Equal(t, StatusValid, verdict.Status)
	assert.Equal(t, 85, verdict.Confidence)
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], `Unknown tool "check_vibes"`)
}

func TestValidateStepWithoutActionPromptsForOne(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"Thought: hmm, I am not sure what to do",
		"Final Answer: NEEDS_REVIEW, 30% confidence",
	}}
	v := newTestValidator(t, llm, Config{})

	verdict := v.Validate(context.Background(), testRecord())

	assert.Equal(t, StatusNeedsReview, verdict.Status)
	assert.Equal(t, 30, verdict.Confidence)
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "No action found")
}

func TestNewValidatorRequiresBackend(t *testing.T) {
	_, err := NewValidator(nil, rules.NewSet(rules.DefaultLimits(), nil), Config{}, nil)
	assert.ErrorIs(t, err, ErrNilLLM)
}

func TestParseVerdictIssueDeduplication(t *testing.T) {
	verdict := parseVerdict("INVALID: Missing required fields: AMOUNT\nINVALID: Missing required fields: AMOUNT")
	require.NotEmpty(t, verdict.Issues)

	seen := map[string]int{}
	for _, issue := range verdict.Issues {
		seen[issue]++
	}
	for issue, n := range seen {
		assert.Equal(t, 1, n, "issue %q duplicated", issue)
	}
}

func TestParseVerdictClampsConfidence(t *testing.T) {
	verdict := parseVerdict("Final verdict VALID with 250% confidence")
	assert.Equal(t, 100, verdict.Confidence)
}
