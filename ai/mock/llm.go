package mock

import (
	"context"
	"fmt"
)

// MockLLM is a test double for ai.LLM.
// It allows custom behavior injection via a function field.
type MockLLM struct {
	// GenerateFunc is called by Generate if set.
	// If nil, uses default deterministic behavior.
	GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

	callCount  int
	lastSystem string
	lastPrompt string
}

// NewMockLLM creates a mock LLM with default deterministic behavior.
// Note: returns the concrete type to allow test assertions.
func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// Generate echoes a deterministic answer derived from the prompt.
// The default answer embeds the prompt so tests can assert the retrieved
// context actually reached the model.
func (m *MockLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.callCount++
	m.lastSystem = system
	m.lastPrompt = prompt

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, system, prompt)
	}

	return fmt.Sprintf("answer(%d chars)", len(prompt)), nil
}

// CallCount returns the number of times Generate was called.
func (m *MockLLM) CallCount() int {
	return m.callCount
}

// LastSystem returns the system instruction from the most recent call.
func (m *MockLLM) LastSystem() string {
	return m.lastSystem
}

// LastPrompt returns the prompt from the most recent call.
func (m *MockLLM) LastPrompt() string {
	return m.lastPrompt
}

// Reset clears the call count and injected behavior.
func (m *MockLLM) Reset() {
	m.callCount = 0
	m.lastSystem = ""
	m.lastPrompt = ""
	m.GenerateFunc = nil
}
