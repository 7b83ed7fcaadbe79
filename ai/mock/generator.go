package mock

import (
	"context"
	"strings"
)

// MockGenerator is a test double for ai.TextGenerator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateTextFunc is called by GenerateText if set.
	// If nil, uses default echo behavior.
	GenerateTextFunc func(ctx context.Context, system, user string) (string, error)

	// GeneratorName is returned by Name. Defaults to "mock".
	GeneratorName string

	callCount int
}

// NewMockGenerator creates a mock generator with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockGenerator().
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateText returns a short deterministic synthesis of the prompt.
// Default behavior: echoes the first line of the user prompt.
func (m *MockGenerator) GenerateText(ctx context.Context, system, user string) (string, error) {
	m.callCount++

	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, system, user)
	}

	firstLine := user
	if i := strings.IndexByte(user, '\n'); i >= 0 {
		firstLine = user[:i]
	}
	return "mock narration: " + firstLine, nil
}

// Name identifies the mock generator.
func (m *MockGenerator) Name() string {
	if m.GeneratorName != "" {
		return m.GeneratorName
	}
	return "mock"
}

// CallCount returns the number of times GenerateText was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockGenerator) Reset() {
	m.callCount = 0
	m.GenerateTextFunc = nil
}
