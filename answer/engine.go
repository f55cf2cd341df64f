// Copyright 2025 stophobia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package answer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stophobia/restai/ai"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/index"
)

const (
	defaultTopK        = 4
	defaultTokenBudget = 3072
	tokenEncoding      = "cl100k_base"
)

// Engine answers questions over a project index: retrieve the most similar
// chunks, fit them into a token budget, and generate with the configured LLM.
type Engine struct {
	llm         ai.LLM
	idx         *index.Index
	topK        int
	tokenBudget int
	encoder     *tiktoken.Tiktoken
	logger      *slog.Logger
}

// Input carries one answering request.
type Input struct {
	// Question is the text to answer. Required.
	Question string

	// System is the effective persona, already resolved by the caller.
	// Empty means no system instruction.
	System string

	// History holds prior conversation turns to condition the answer on.
	History []core.ChatTurn

	// K overrides the engine's top-k when positive.
	K int
}

// Result is an answer together with the chunks that grounded it, in
// retrieval order.
type Result struct {
	Answer  string
	Sources []*core.Chunk
}

// Option configures an Engine.
type Option func(*Engine) error

// WithTopK sets how many chunks are retrieved per question.
// Default is 4.
func WithTopK(k int) Option {
	return func(e *Engine) error {
		if k > 0 {
			e.topK = k
		}
		return nil
	}
}

// WithTokenBudget sets the token budget for retrieved context.
// Default is 3072.
func WithTokenBudget(budget int) Option {
	return func(e *Engine) error {
		if budget > 0 {
			e.tokenBudget = budget
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates an answering engine over the given index and LLM.
func NewEngine(idx *index.Index, llm ai.LLM, opts ...Option) (*Engine, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}
	if llm == nil {
		return nil, ErrLLMRequired
	}

	e := &Engine{
		llm:         llm,
		idx:         idx,
		topK:        defaultTopK,
		tokenBudget: defaultTokenBudget,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	// The encoder needs its BPE ranks available; fall back to a character
	// heuristic when they are not.
	encoder, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		e.logger.Warn("token encoder unavailable, using character heuristic", "encoding", tokenEncoding, "err", err)
	} else {
		e.encoder = encoder
	}

	return e, nil
}

// Answer answers the question using retrieved context.
func (e *Engine) Answer(ctx context.Context, in Input) (*Result, error) {
	return e.AnswerWithMonitor(ctx, in, nil)
}

// AnswerWithMonitor answers the question with monitoring.
// The monitor receives callbacks at each stage of the process.
func (e *Engine) AnswerWithMonitor(ctx context.Context, in Input, monitor Monitor) (*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if in.Question == "" {
		return nil, ErrEmptyQuestion
	}

	monitor.Start(in.Question)

	k := e.topK
	if in.K > 0 {
		k = in.K
	}

	// Condition retrieval on the conversation, not just the last message
	query := in.Question
	if len(in.History) > 0 {
		query = buildHistory(in.History) + "User: " + in.Question
	}

	scored, err := e.idx.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	monitor.AfterRetrieval(scored)

	kept := e.budgetChunks(scored)
	monitor.AfterBudgeting(kept)

	prompt := buildPrompt(in.Question, kept)
	if history := buildHistory(in.History); history != "" {
		prompt = history + "\n" + prompt
	}

	text, err := e.llm.Generate(ctx, in.System, prompt)
	if err != nil {
		e.logger.Error("generation failed", "err", err)
		return nil, fmt.Errorf("%w: %v", core.ErrGenerationFailed, err)
	}

	result := &Result{
		Answer:  text,
		Sources: kept,
	}
	monitor.Finish(result)

	return result, nil
}

// budgetChunks keeps retrieved chunks, best first, until the token budget
// is exhausted. The first chunk is always kept so an oversized best match
// still reaches the model.
func (e *Engine) budgetChunks(scored []*core.ScoredChunk) []*core.Chunk {
	var kept []*core.Chunk
	used := 0
	for i, sc := range scored {
		cost := e.countTokens(sc.Chunk.Content)
		if i > 0 && used+cost > e.tokenBudget {
			break
		}
		kept = append(kept, sc.Chunk)
		used += cost
	}
	return kept
}

// countTokens measures text against the token budget.
func (e *Engine) countTokens(text string) int {
	if e.encoder != nil {
		return len(e.encoder.Encode(text, nil, nil))
	}
	// Rough heuristic: about four characters per token
	return len(text) / 4
}
