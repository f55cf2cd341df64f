package mock

import "github.com/stophobia/restai/ai"

// NewRegistry creates a provider registry with deterministic mock providers
// registered under the given names. Convenient for tests that exercise the
// brain end to end without external services.
func NewRegistry(names ...string) *ai.Registry {
	if len(names) == 0 {
		names = []string{"mock"}
	}
	reg := ai.NewRegistry()
	for _, name := range names {
		reg.RegisterEmbedder(name, func() (ai.Embedder, error) {
			return NewMockEmbedder(), nil
		})
		reg.RegisterLLM(name, func() (ai.LLM, error) {
			return NewMockLLM(), nil
		})
	}
	return reg
}
