// Package generator drives the model conversation for a single query: it
// issues model calls, executes requested tools between rounds, and decides
// when to stop. The loop always terminates in at most maxRounds+1 model
// calls and always returns text, never a raw tool request.
package generator

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parsa-hm/lectern/internal/telemetry"
	"github.com/parsa-hm/lectern/provider"
)

// systemPrompt is fixed across all calls; conversation history is appended
// to it per query.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with access to tools for searching course content and retrieving course outlines.

Available Tools:
1. search_course_content: search within course materials for specific topics, explanations and examples.
2. get_course_outline: get the full structure and lesson list of a course.

Tool Usage Guidelines:
- Use tools for questions about specific course content or structure.
- You may request several tools in a single response when needed.
- You can chain tool calls across up to 2 rounds: for example, fetch a course outline first, then search within the lesson it revealed.
- Synthesize tool results into clear, accurate responses.
- If a tool yields no results, state this plainly without offering alternatives.

Response Protocol:
- Answer general knowledge questions from your own knowledge without tools.
- Give direct answers only. Do not narrate your reasoning or mention tool usage.
- Keep responses brief, educational and clear, with examples where they help.`

// ToolExecutor dispatches one tool invocation by name. Satisfied by
// *tools.Registry.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]interface{}) (string, error)
}

var generatorTracer trace.Tracer = otel.Tracer("lectern/internal/generator")

// Generator runs the sequential tool-calling loop against a model provider.
type Generator struct {
	provider  provider.Provider
	maxRounds int
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

// New creates a generator. maxRounds bounds how many tool-execution rounds
// a single query may use.
func New(p provider.Provider, maxRounds int, logger *log.Logger, tele *telemetry.Telemetry) *Generator {
	if maxRounds <= 0 {
		maxRounds = 2
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[GEN] ", log.LstdFlags)
	}
	return &Generator{provider: p, maxRounds: maxRounds, logger: logger, telemetry: tele}
}

// Generate answers one user query. history is flattened prior conversation
// text ("" for none). When toolDefs and executor are provided the model may
// request retrieval; otherwise it answers directly. Model backend failures
// propagate to the caller.
func (g *Generator) Generate(ctx context.Context, query, history string, toolDefs []provider.ToolDefinition, executor ToolExecutor) (string, error) {
	ctx, span := generatorTracer.Start(ctx, "generator.generate",
		trace.WithAttributes(attribute.Int("tools.offered", len(toolDefs))))
	defer span.End()

	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}

	messages := []provider.Message{{
		Role:    provider.RoleUser,
		Content: []provider.ContentBlock{provider.TextBlock(query)},
	}}

	offerTools := len(toolDefs) > 0 && executor != nil
	req := provider.Request{System: system, Messages: messages}
	if offerTools {
		req.Tools = toolDefs
		req.ToolChoiceAuto = true
	}

	resp, err := g.createMessage(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if resp.StopReason != provider.StopReasonToolUse || !offerTools {
		return resp.FirstText(), nil
	}
	answer, err := g.runToolRounds(ctx, system, messages, toolDefs, executor, resp)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return answer, nil
}

// runToolRounds executes the round-bounded tool loop. A round is: the model
// requested tools, all of them are executed, results go back to the model.
// Any invocation error, and the round cap, each force exactly one final
// tool-less call so the model must produce text.
func (g *Generator) runToolRounds(ctx context.Context, system string, messages []provider.Message, toolDefs []provider.ToolDefinition, executor ToolExecutor, resp *provider.Response) (string, error) {
	for round := 1; round <= g.maxRounds; round++ {
		if resp.StopReason != provider.StopReasonToolUse {
			return resp.FirstText(), nil
		}

		messages = append(messages, provider.Message{
			Role:    provider.RoleAssistant,
			Content: resp.Content,
		})

		var results []provider.ContentBlock
		failed := false
		for _, tu := range resp.ToolUses() {
			out, err := executor.Execute(ctx, tu.Name, tu.Input)
			if err != nil {
				out = fmt.Sprintf("Tool execution error: %v", err)
				results = append(results, provider.ToolResultBlock(tu.ID, out, true))
				failed = true
				g.telemetry.RecordToolExecution(tu.Name, false)
				g.logger.Printf("tool %s failed in round %d: %v", tu.Name, round, err)
				continue
			}
			results = append(results, provider.ToolResultBlock(tu.ID, out, false))
			g.telemetry.RecordToolExecution(tu.Name, true)
		}
		if len(results) > 0 {
			messages = append(messages, provider.Message{
				Role:    provider.RoleUser,
				Content: results,
			})
		}

		// A failed invocation or the round cap forces one last tool-less
		// call: the model sees the results but cannot request more tools.
		if failed || round >= g.maxRounds {
			final, err := g.createMessage(ctx, provider.Request{System: system, Messages: messages})
			if err != nil {
				return "", err
			}
			return final.FirstText(), nil
		}

		next, err := g.createMessage(ctx, provider.Request{
			System:         system,
			Messages:       messages,
			Tools:          toolDefs,
			ToolChoiceAuto: true,
		})
		if err != nil {
			return "", err
		}
		resp = next
	}
	return resp.FirstText(), nil
}

func (g *Generator) createMessage(ctx context.Context, req provider.Request) (*provider.Response, error) {
	resp, err := g.provider.CreateMessage(ctx, req)
	if err != nil {
		g.telemetry.RecordModelCall(false, 0, 0)
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	g.telemetry.RecordModelCall(true, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}
