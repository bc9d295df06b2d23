// Package mock provides a scripted LanguageModel for tests.
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
)

// ErrScriptExhausted is returned when the model is called more times than scripted
var ErrScriptExhausted = errors.New("mock script exhausted")

// Responder produces the reply for one Generate call
type Responder func(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error)

// Model replays responders in order, or routes by system prompt when a router is set.
type Model struct {
	mu       sync.Mutex
	script   []Responder
	router   func(req provider.GenerateRequest) Responder
	requests []provider.GenerateRequest
}

func New(script ...Responder) *Model {
	return &Model{script: script}
}

// NewRouted builds a model that picks a responder per request
func NewRouted(router func(req provider.GenerateRequest) Responder) *Model {
	return &Model{router: router}
}

func (m *Model) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)

	var next Responder
	if m.router != nil {
		next = m.router(req)
	} else if len(m.script) > 0 {
		next = m.script[0]
		m.script = m.script[1:]
	}
	m.mu.Unlock()

	if next == nil {
		return nil, ErrScriptExhausted
	}

	return next(ctx, req)
}

func (m *Model) ID() string {
	return "mock:scripted"
}

// Requests returns the requests received so far
func (m *Model) Requests() []provider.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]provider.GenerateRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Text replies with plain content and a stop finish reason
func Text(content string) Responder {
	return func(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
		return &types.GenerateResponse{Content: content, FinishReason: types.FinishReasonStop}, nil
	}
}

// Truncated replies with content cut by the token cap
func Truncated(content string) Responder {
	return func(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
		return &types.GenerateResponse{Content: content, FinishReason: types.FinishReasonLength}, nil
	}
}

// CallTool replies with a single tool call
func CallTool(name string, args map[string]any) Responder {
	return func(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
		return &types.GenerateResponse{
			ToolCalls: []types.ToolCall{{
				ID:        fmt.Sprintf("call_%s", name),
				Name:      name,
				Arguments: args,
			}},
			FinishReason: types.FinishReasonToolCalls,
		}, nil
	}
}

// Fail returns err from the provider
func Fail(err error) Responder {
	return func(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
		return nil, err
	}
}
