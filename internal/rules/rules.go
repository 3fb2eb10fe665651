// Package rules implements the deterministic validation tools the
// reasoning agent can invoke against one receipt snapshot.
//
// Every tool returns a keyword-tagged verdict string. Pass verdicts start
// with VALID, CONSISTENT, COMPLIANT or UNIQUE; failures with INVALID,
// INCONSISTENT, RULE_VIOLATION or DUPLICATE; non-blocking concerns with
// WARNING; a failure of the tool itself with ERROR. The agent observes
// these strings verbatim, so the prefixes are part of the contract.
package rules

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/reconciled/internal/receipt"
)

// Tool is one validation check selectable by name. Tools never return Go
// errors: a tool that cannot run reports an ERROR or WARNING verdict so
// the reasoning loop keeps going.
type Tool interface {
	Name() string
	Description() string
	Check(ctx context.Context, rec *receipt.Record) string
}

// Limits carries the configured validation bounds shared by the tools.
type Limits struct {
	MinAmount float64
	MaxAmount float64
	// SanityCap is the hard upper bound beyond which an amount is flagged
	// regardless of MaxAmount.
	SanityCap float64
	MinYear   int
	MaxYear   int
}

// DefaultLimits mirrors the production reconciliation bounds.
func DefaultLimits() Limits {
	return Limits{
		MinAmount: 0.01,
		MaxAmount: 10_000_000,
		SanityCap: 1_000_000_000,
		MinYear:   2000,
		MaxYear:   2100,
	}
}

// Set is the declared tool collection handed to the agent. Dispatch is a
// plain name lookup.
type Set struct {
	tools  []Tool
	byName map[string]Tool
}

// NewSet builds the standard five-tool set. The duplicate tool degrades
// to a warning when counter is nil (no store access).
func NewSet(limits Limits, counter DuplicateCounter) *Set {
	return newSet(
		&validityTool{},
		&assignmentTool{},
		&consistencyTool{limits: limits},
		&duplicateTool{counter: counter},
		&businessRulesTool{limits: limits},
	)
}

func newSet(tools ...Tool) *Set {
	s := &Set{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		s.tools = append(s.tools, t)
		s.byName[t.Name()] = t
	}
	return s
}

// ByName looks up a tool by its declared name.
func (s *Set) ByName(name string) (Tool, bool) {
	t, ok := s.byName[strings.TrimSpace(name)]
	return t, ok
}

// Tools returns the tools in declaration order.
func (s *Set) Tools() []Tool {
	return s.tools
}

// Names returns the tool names in declaration order.
func (s *Set) Names() []string {
	names := make([]string, len(s.tools))
	for i, t := range s.tools {
		names[i] = t.Name()
	}
	return names
}

// Describe renders the name-and-description list embedded in the agent
// prompt.
func (s *Set) Describe() string {
	var b strings.Builder
	for i, t := range s.tools {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.Name())
		b.WriteString(": ")
		b.WriteString(t.Description())
	}
	return b.String()
}
