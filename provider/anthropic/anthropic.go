// Package anthropic implements provider.Provider on top of the Anthropic
// Claude Messages API via github.com/anthropics/anthropic-sdk-go.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/parsa-hm/lectern/provider"
)

// MessagesClient is the subset of the Anthropic SDK used by this client. It
// is satisfied by *sdk.MessageService so tests can pass a stub instead.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client calls the Claude Messages API with fixed model parameters. The
// generation loop varies only messages and tool attachment between calls.
type Client struct {
	msg         MessagesClient
	model       string
	temperature float64
	maxTokens   int
}

// New builds a Client from a Messages client and model settings.
func New(msg MessagesClient, model string, temperature float64, maxTokens int) (*Client, error) {
	if msg == nil {
		return nil, errors.New("anthropic messages client is required")
	}
	if model == "" {
		return nil, errors.New("model identifier is required")
	}
	if maxTokens <= 0 {
		return nil, errors.New("max_tokens must be positive")
	}
	return &Client{msg: msg, model: model, temperature: temperature, maxTokens: maxTokens}, nil
}

// NewFromAPIKey constructs a Client using the default Anthropic HTTP client.
func NewFromAPIKey(apiKey, model string, temperature float64, maxTokens int) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, model, temperature, maxTokens)
}

// CreateMessage issues one blocking Messages.New call and translates the
// response into the provider content-block model.
func (c *Client) CreateMessage(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params, err := c.encodeRequest(req)
	if err != nil {
		return nil, err
	}
	msg, err := c.msg.New(ctx, *params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}
	return translateResponse(msg)
}

func (c *Client) encodeRequest(req provider.Request) (*sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("anthropic: messages are required")
	}
	msgs, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   int64(c.maxTokens),
		Temperature: sdk.Float(c.temperature),
		Messages:    msgs,
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := encodeTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
		if req.ToolChoiceAuto {
			params.ToolChoice = sdk.ToolChoiceUnionParam{OfAuto: &sdk.ToolChoiceAutoParam{}}
		}
	}
	return &params, nil
}

func encodeMessages(msgs []provider.Message) ([]sdk.MessageParam, error) {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case provider.BlockTypeText:
				if b.Text != "" {
					blocks = append(blocks, sdk.NewTextBlock(b.Text))
				}
			case provider.BlockTypeToolUse:
				if b.Name == "" {
					return nil, errors.New("anthropic: tool_use block missing name")
				}
				blocks = append(blocks, sdk.NewToolUseBlock(b.ID, b.Input, b.Name))
			case provider.BlockTypeToolResult:
				blocks = append(blocks, sdk.NewToolResultBlock(b.ToolUseID, b.Content, b.IsError))
			default:
				return nil, fmt.Errorf("anthropic: unsupported content block type %q", b.Type)
			}
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role {
		case provider.RoleUser:
			out = append(out, sdk.NewUserMessage(blocks...))
		case provider.RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return out, nil
}

func encodeTools(defs []provider.ToolDefinition) ([]sdk.ToolUnionParam, error) {
	tools := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, errors.New("anthropic: tool definition missing name")
		}
		if def.Description == "" {
			return nil, fmt.Errorf("anthropic: tool %q is missing description", def.Name)
		}
		schema := sdk.ToolInputSchemaParam{}
		if len(def.InputSchema) > 0 {
			schema.ExtraFields = def.InputSchema
		}
		u := sdk.ToolUnionParamOfTool(schema, def.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		tools = append(tools, u)
	}
	return tools, nil
}

func translateResponse(msg *sdk.Message) (*provider.Response, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	resp := &provider.Response{StopReason: string(msg.StopReason)}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			resp.Content = append(resp.Content, provider.TextBlock(block.Text))
		case "tool_use":
			var input map[string]interface{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &input); err != nil {
					return nil, fmt.Errorf("anthropic: tool_use input for %q: %w", block.Name, err)
				}
			}
			resp.Content = append(resp.Content, provider.ToolUseBlock(block.ID, block.Name, input))
		}
	}
	resp.Usage = provider.Usage{
		InputTokens:  msg.Usage.InputTokens,
		OutputTokens: msg.Usage.OutputTokens,
	}
	return resp, nil
}
