package answer

import "errors"

var (
	// ErrLLMRequired indicates that an LLM is required.
	ErrLLMRequired = errors.New("llm is required")

	// ErrIndexRequired indicates that a project index is required.
	ErrIndexRequired = errors.New("project index is required")

	// ErrEmptyQuestion indicates that the question text is empty.
	ErrEmptyQuestion = errors.New("question is empty")
)
