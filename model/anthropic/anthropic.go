// Package anthropic adapts the Anthropic Messages API to the model
// capability contract: terminator sequences map to stop sequences, priming
// text becomes an assistant prefill, and token usage is reported per
// invocation. Transport failures surface as a network-error result, never as
// an error value.
package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/weavehq/weave/model"
)

// Options configures the adapter. DefaultModel is used when an invocation
// carries no model id of its own; MaxTokens caps generation when the
// invocation's token budget is unset.
type Options struct {
	DefaultModel anthropic.Model
	Temperature  float64
	MaxTokens    int64
	APIKey       string
}

// Capability wraps the Anthropic Messages API behind model.Capability.
type Capability struct {
	client *anthropic.Client
	opts   Options
}

// New creates an Anthropic capability using the official client.
func New(optFns ...func(o *Options)) *Capability {
	opts := Options{
		DefaultModel: anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:  0.7,
		MaxTokens:    4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Capability{client: &client, opts: opts}
}

// NewFromClient creates a capability from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Capability {
	opts := Options{
		DefaultModel: anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:  0.7,
		MaxTokens:    4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Capability{client: client, opts: opts}
}

// Invoke implements model.Capability.
func (c *Capability) Invoke(ctx context.Context, inv model.Invocation) model.Result {
	params := anthropic.MessageNewParams{
		Model:       c.resolveModel(inv.ModelID),
		MaxTokens:   c.resolveBudget(inv.TokenBudget),
		Temperature: anthropic.Float(c.opts.Temperature),
		Messages:    c.buildMessages(inv),
	}
	if inv.SystemText != "" {
		params.System = []anthropic.TextBlockParam{{Text: inv.SystemText}}
	}
	if len(inv.Terminators) > 0 {
		params.StopSequences = inv.Terminators
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return model.Result{StopReason: model.StopNetworkError}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	res := model.Result{
		Content:      text.String(),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}
	switch resp.StopReason {
	case "max_tokens":
		res.StopReason = model.StopOverflow
	case "stop_sequence":
		res.StopReason = model.StopDesigned
		res.TerminatorHit = resp.StopSequence
	case "refusal":
		res.StopReason = model.StopContentFilter
	default:
		res.StopReason = model.StopNatural
	}
	return res
}

// buildMessages converts history to Anthropic messages, appending priming
// text as a trailing assistant prefill when present.
func (c *Capability) buildMessages(inv model.Invocation) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, m := range inv.History {
		if m.Text == "" {
			continue
		}
		switch m.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		}
	}
	if inv.Priming != "" {
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(inv.Priming)))
	}
	return messages
}

func (c *Capability) resolveModel(id string) anthropic.Model {
	if id != "" {
		return anthropic.Model(id)
	}
	return c.opts.DefaultModel
}

func (c *Capability) resolveBudget(budget int) int64 {
	if budget > 0 {
		return int64(budget)
	}
	return c.opts.MaxTokens
}
