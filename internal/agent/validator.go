// Package agent runs the bounded think/act/observe reasoning loop that
// validates one receipt at a time.
//
// The loop follows the ReAct convention: the model is shown the declared
// tool set and the record snapshot, proposes one Action per iteration,
// observes the tool's verdict string, and eventually emits a Final Answer
// containing an outcome keyword and a confidence score. A hard iteration
// cap bounds cost; cap exhaustion yields NEEDS_REVIEW, never silent
// success.
package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
	"github.com/fyrsmithlabs/reconciled/internal/rules"
)

// ErrNilLLM indicates a validator constructed without a model backend.
var ErrNilLLM = errors.New("agent: llm backend is required")

// DefaultMaxIterations bounds the reasoning loop when config leaves it
// unset.
const DefaultMaxIterations = 10

// Config tunes the reasoning loop.
type Config struct {
	// MaxIterations is the hard cap on think/act/observe rounds.
	MaxIterations int
	// RequestsPerMinute rate-limits LLM calls. Zero disables limiting.
	RequestsPerMinute float64
	// Temperature is passed through to the model. Validation wants 0.
	Temperature float64
}

// Validator validates receipts with an LLM-driven reasoning loop over the
// rule tool set.
type Validator struct {
	llm           llms.Model
	tools         *rules.Set
	maxIterations int
	temperature   float64
	limiter       *rate.Limiter
	logger        *zap.Logger
}

// NewValidator creates a validator. The tool set must not be nil; the
// logger may be.
func NewValidator(llm llms.Model, tools *rules.Set, cfg Config, logger *zap.Logger) (*Validator, error) {
	if llm == nil {
		return nil, ErrNilLLM
	}
	if tools == nil {
		return nil, errors.New("agent: tool set is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), 1)
	}

	return &Validator{
		llm:           llm,
		tools:         tools,
		maxIterations: maxIterations,
		temperature:   cfg.Temperature,
		limiter:       limiter,
		logger:        logger,
	}, nil
}

const promptTemplate = `You are an expert receipt validation agent. Your task is to validate receipts for reconciliation.

You have access to the following tools:

%s

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: Provide a comprehensive validation result with:
1. Overall validation status (VALID/INVALID/NEEDS_REVIEW)
2. Confidence score (0-100)
3. Detailed reasoning
4. Any issues found

Question: Validate this receipt for reconciliation:
%s

%s`

var actionRe = regexp.MustCompile(`(?m)^\s*Action:\s*(.+)\s*$`)

const finalAnswerMarker = "Final Answer:"

// Validate runs the reasoning loop for one record and always returns a
// verdict: any backend failure becomes a terminal ERROR verdict for this
// record rather than an error to the caller.
func (v *Validator) Validate(ctx context.Context, rec *receipt.Record) Verdict {
	verdict := v.run(ctx, rec)
	verdict.ReceiptID = rec.ID
	verdict.ReceiptNumber = rec.ReceiptNumber

	v.logger.Debug("receipt validated",
		zap.Int64("receipt_id", rec.ID),
		zap.String("status", string(verdict.Status)),
		zap.Int("confidence", verdict.Confidence),
		zap.Int("issues", len(verdict.Issues)),
	)
	return verdict
}

func (v *Validator) run(ctx context.Context, rec *receipt.Record) Verdict {
	snapshot := rec.PromptFields()
	toolList := v.tools.Describe()
	toolNames := strings.Join(v.tools.Names(), ", ")

	var scratchpad strings.Builder
	scratchpad.WriteString("Thought:")

	for i := 0; i < v.maxIterations; i++ {
		if v.limiter != nil {
			if err := v.limiter.Wait(ctx); err != nil {
				return errorVerdict(err)
			}
		}

		prompt := fmt.Sprintf(promptTemplate, toolList, toolNames, snapshot, scratchpad.String())
		step, err := llms.GenerateFromSinglePrompt(ctx, v.llm, prompt,
			llms.WithTemperature(v.temperature),
			llms.WithStopWords([]string{"\nObservation:"}),
		)
		if err != nil {
			return errorVerdict(err)
		}

		if idx := strings.Index(step, finalAnswerMarker); idx >= 0 {
			answer := strings.TrimSpace(step[idx+len(finalAnswerMarker):])
			return parseVerdict(answer)
		}

		scratchpad.WriteString(strings.TrimRight(step, "\n"))

		observation := v.observe(ctx, step, rec)
		scratchpad.WriteString("\nObservation: ")
		scratchpad.WriteString(observation)
		scratchpad.WriteString("\nThought:")
	}

	return Verdict{
		Status:     StatusNeedsReview,
		Confidence: DefaultConfidence,
		Reasoning: fmt.Sprintf(
			"Validation stopped after %d iterations without a final answer; routing to manual review.",
			v.maxIterations),
	}
}

// observe dispatches the Action named in the model's step against the
// record snapshot. Tool selection is a name lookup over the declared set.
func (v *Validator) observe(ctx context.Context, step string, rec *receipt.Record) string {
	m := actionRe.FindStringSubmatch(step)
	if m == nil {
		return "No action found. Respond with an Action line naming one tool, or a Final Answer."
	}

	name := strings.TrimSpace(m[1])
	tool, ok := v.tools.ByName(name)
	if !ok {
		return fmt.Sprintf("Unknown tool %q. Available tools: %s.", name, strings.Join(v.tools.Names(), ", "))
	}

	v.logger.Debug("tool invoked",
		zap.Int64("receipt_id", rec.ID),
		zap.String("tool", name),
	)
	return tool.Check(ctx, rec)
}

func errorVerdict(err error) Verdict {
	return Verdict{
		Status:     StatusError,
		Confidence: 0,
		Reasoning:  fmt.Sprintf("Validation error: %v", err),
		Issues:     []string{fmt.Sprintf("Validation failed: %v", err)},
	}
}
