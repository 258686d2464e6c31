// Package openai adapts the OpenAI Chat Completions API to the model
// capability contract. Terminator sequences map to stop parameters; because
// the API reports a plain "stop" finish reason for both natural ends and
// stop-sequence hits, a stop with terminators configured is classified as a
// designed stop. Transport failures surface as a network-error result.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/weavehq/weave/model"
)

// Options configures the adapter.
type Options struct {
	DefaultModel string
	Temperature  float64
	MaxTokens    int64
}

// Capability wraps the OpenAI Chat Completions API behind model.Capability.
type Capability struct {
	client *openai.Client
	opts   Options
}

// New creates an OpenAI capability using the official client (API key from
// the environment).
func New(optFns ...func(o *Options)) *Capability {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a capability from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Capability {
	opts := Options{
		DefaultModel: openai.ChatModelGPT4oMini,
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
	params := openai.ChatCompletionNewParams{
		Model:               c.resolveModel(inv.ModelID),
		Messages:            c.buildMessages(inv),
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.resolveBudget(inv.TokenBudget)),
	}
	if len(inv.Terminators) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: inv.Terminators}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil || len(resp.Choices) == 0 {
		return model.Result{StopReason: model.StopNetworkError}
	}

	choice := resp.Choices[0]
	res := model.Result{
		Content:      choice.Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	switch choice.FinishReason {
	case "length":
		res.StopReason = model.StopOverflow
	case "content_filter":
		res.StopReason = model.StopContentFilter
	case "stop":
		if len(inv.Terminators) > 0 {
			res.StopReason = model.StopDesigned
		} else {
			res.StopReason = model.StopNatural
		}
	default:
		res.StopReason = model.StopNatural
	}
	return res
}

// buildMessages converts history to chat messages. Priming is appended as a
// trailing assistant message; Chat Completions has no true prefill, so the
// model sees it as the start of its prior turn.
func (c *Capability) buildMessages(inv model.Invocation) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if inv.SystemText != "" {
		messages = append(messages, openai.SystemMessage(inv.SystemText))
	}
	for _, m := range inv.History {
		if m.Text == "" {
			continue
		}
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Text))
		default:
			messages = append(messages, openai.UserMessage(m.Text))
		}
	}
	if inv.Priming != "" {
		messages = append(messages, openai.AssistantMessage(inv.Priming))
	}
	return messages
}

func (c *Capability) resolveModel(id string) string {
	if id != "" {
		return id
	}
	return c.opts.DefaultModel
}

func (c *Capability) resolveBudget(budget int) int64 {
	if budget > 0 {
		return int64(budget)
	}
	return c.opts.MaxTokens
}
