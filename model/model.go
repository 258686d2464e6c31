// Package model defines the external model capability consumed by the
// orchestration core: a single Invoke operation taking a token budget,
// system text, message history, optional priming and terminator sequences,
// and returning content plus a stop reason and token counts. Vendor adapters
// live in subpackages; MockCapability serves tests and examples.
package model

import "context"

// StopReason classifies how a generation ended.
type StopReason string

const (
	// StopNatural means the model ended its turn on its own.
	StopNatural StopReason = "natural"
	// StopOverflow means generation was cut off by the token budget. The
	// caller may resume by resubmitting the partial output as history.
	StopOverflow StopReason = "overflow"
	// StopContentFilter means the response was filtered by the vendor.
	StopContentFilter StopReason = "content-filter"
	// StopDesigned means generation hit one of the supplied terminator
	// sequences.
	StopDesigned StopReason = "designed-stop"
	// StopNetworkError means the call failed in transport; the result
	// carries empty content and is otherwise terminal.
	StopNetworkError StopReason = "network-error"
)

// Clean reports whether the response terminated where the caller designed it
// to (a terminator hit or a natural end of turn), i.e. whether its structure
// can be trusted for parsing.
func (r StopReason) Clean() bool {
	return r == StopNatural || r == StopDesigned
}

// Message is one entry of conversation history.
type Message struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Invocation is the normalized model input.
type Invocation struct {
	ModelID     string    `json:"model_id"`
	TokenBudget int       `json:"token_budget"`
	SystemText  string    `json:"system_text"`
	History     []Message `json:"history"`
	// Priming is prepended to the model's turn (assistant prefill) when the
	// vendor supports it.
	Priming string `json:"priming,omitempty"`
	// Terminators are stop sequences; hitting one yields StopDesigned.
	Terminators []string `json:"terminators,omitempty"`
}

// Result is the terminal outcome of one invocation. Adapters never surface
// transport failures as errors; they report StopNetworkError with empty
// content so callers can treat every invocation as total.
type Result struct {
	Content       string     `json:"content"`
	StopReason    StopReason `json:"stop_reason"`
	TerminatorHit string     `json:"terminator_hit,omitempty"`
	InputTokens   int        `json:"input_tokens"`
	OutputTokens  int        `json:"output_tokens"`
}

// Cost returns the token spend of this invocation.
func (r Result) Cost() int { return r.InputTokens + r.OutputTokens }

// Capability is the external model interface consumed by the runner.
type Capability interface {
	Invoke(ctx context.Context, inv Invocation) Result
}

// MockCapability replays scripted results in order, recording every
// invocation it receives. Zero value is usable; when the script runs out it
// returns an empty natural stop.
type MockCapability struct {
	Script      []Result
	Invocations []Invocation
}

// Invoke implements Capability.
func (m *MockCapability) Invoke(_ context.Context, inv Invocation) Result {
	m.Invocations = append(m.Invocations, inv)
	if len(m.Script) == 0 {
		return Result{StopReason: StopNatural}
	}
	res := m.Script[0]
	m.Script = m.Script[1:]
	return res
}
