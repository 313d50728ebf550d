package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scripted Client for tests and offline runs. Each
// method pops the next scripted value, or returns the fallback error
// when the script is exhausted. The Fn hooks take precedence when set,
// for tests that need answers keyed to the input rather than to call
// order (the describe fan-out runs concurrently, so call order there is
// not deterministic).
type MockClient struct {
	mu sync.Mutex

	CompleteFn func(prompt string) (string, error)
	DescribeFn func(framePath string) (string, error)
	EmbedFn    func(text string) ([]float32, error)

	CompleteResponses []string
	CompleteErrs      []error
	DescribeResponses []string
	DescribeErrs      []error
	EmbedResponses    [][]float32
	EmbedErrs         []error

	CompleteCalls []string
	DescribeCalls []string
	EmbedCalls    []string
}

func (m *MockClient) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalls = append(m.CompleteCalls, prompt)
	if m.CompleteFn != nil {
		return m.CompleteFn(prompt)
	}
	i := len(m.CompleteCalls) - 1
	if i < len(m.CompleteErrs) && m.CompleteErrs[i] != nil {
		return "", m.CompleteErrs[i]
	}
	if i < len(m.CompleteResponses) {
		return m.CompleteResponses[i], nil
	}
	return "", fmt.Errorf("mock: no scripted completion for call %d", i)
}

func (m *MockClient) Describe(_ context.Context, framePath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DescribeCalls = append(m.DescribeCalls, framePath)
	if m.DescribeFn != nil {
		return m.DescribeFn(framePath)
	}
	i := len(m.DescribeCalls) - 1
	if i < len(m.DescribeErrs) && m.DescribeErrs[i] != nil {
		return "", m.DescribeErrs[i]
	}
	if i < len(m.DescribeResponses) {
		return m.DescribeResponses[i], nil
	}
	return "", fmt.Errorf("mock: no scripted description for call %d", i)
}

func (m *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmbedCalls = append(m.EmbedCalls, text)
	if m.EmbedFn != nil {
		return m.EmbedFn(text)
	}
	i := len(m.EmbedCalls) - 1
	if i < len(m.EmbedErrs) && m.EmbedErrs[i] != nil {
		return nil, m.EmbedErrs[i]
	}
	if i < len(m.EmbedResponses) {
		return m.EmbedResponses[i], nil
	}
	return nil, fmt.Errorf("mock: no scripted embedding for call %d", i)
}
