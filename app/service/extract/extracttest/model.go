// Package extracttest provides a scripted llms.Model for exercising the extraction pipeline.
package extracttest

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

var _ llms.Model = (*Model)(nil)

type Model struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string

	// Block, when set, holds every call until it is closed or the call context ends.
	Block chan struct{}
	// StopReason is reported as the finish reason of the answer.
	StopReason string
}

func NewModel(response string) *Model {
	return &Model{response: response}
}

func NewFailingModel(err error) *Model {
	return &Model{err: err}
}

func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	block := m.Block
	stop := m.StopReason
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.err != nil {
		return nil, m.err
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response, StopReason: stop}},
	}, nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *Model) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.prompts...)
}
