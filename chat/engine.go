package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stophobia/restai/answer"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/storage"
)

var (
	// ErrAnswererRequired indicates that an answering engine is required.
	ErrAnswererRequired = errors.New("answering engine is required")

	// ErrSessionsRequired indicates that a session repository is required.
	ErrSessionsRequired = errors.New("session repository is required")

	// ErrEmptyMessage indicates that the chat message is empty.
	ErrEmptyMessage = errors.New("message is empty")
)

// Engine runs multi-turn conversations for one project. Each turn is a
// retrieval-augmented answer conditioned on the session history; the session
// is persisted after every turn.
type Engine struct {
	answerer *answer.Engine
	sessions storage.ChatRepository
	project  string
	logger   *slog.Logger
}

// Input carries one conversation turn request.
type Input struct {
	// Message is the user's message. Required.
	Message string

	// Id resumes an existing session. Empty starts a new session with a
	// fresh id.
	Id string

	// System is the effective persona, already resolved by the caller.
	System string

	// K overrides the retrieval top-k when positive.
	K int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
	}
}

// NewEngine creates a chat engine for the named project.
func NewEngine(answerer *answer.Engine, sessions storage.ChatRepository, project string, opts ...Option) (*Engine, error) {
	if answerer == nil {
		return nil, ErrAnswererRequired
	}
	if sessions == nil {
		return nil, ErrSessionsRequired
	}

	e := &Engine{
		answerer: answerer,
		sessions: sessions,
		project:  project,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Converse runs one turn: resolve the session, answer with history, append
// the turn, persist, and return the session id with the result.
//
// Callers that need strict turn ordering across goroutines must serialize
// calls per session id.
func (e *Engine) Converse(ctx context.Context, in Input) (string, *answer.Result, error) {
	if in.Message == "" {
		return "", nil, ErrEmptyMessage
	}

	session, err := e.resolveSession(ctx, in.Id)
	if err != nil {
		return "", nil, err
	}

	result, err := e.answerer.Answer(ctx, answer.Input{
		Question: in.Message,
		System:   in.System,
		History:  session.Turns,
		K:        in.K,
	})
	if err != nil {
		return "", nil, err
	}

	session.Turns = append(session.Turns, core.ChatTurn{
		Question:  in.Message,
		Answer:    result.Answer,
		Timestamp: time.Now().UTC(),
	})

	if err := e.sessions.PutSession(ctx, session); err != nil {
		return "", nil, err
	}

	e.logger.Debug("chat turn completed", "project", e.project, "chat", session.Id, "turns", len(session.Turns))
	return session.Id, result, nil
}

// History returns the turns of an existing session.
// Returns core.ErrNotFound for unknown ids or sessions of other projects.
func (e *Engine) History(ctx context.Context, id string) ([]core.ChatTurn, error) {
	session, err := e.sessions.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: chat %s", core.ErrNotFound, id)
		}
		return nil, err
	}
	if session.Project != e.project {
		return nil, fmt.Errorf("%w: chat %s", core.ErrNotFound, id)
	}
	return session.Turns, nil
}

// resolveSession loads the session for id, or starts a new one. An unknown
// id starts a fresh session under that id, so callers can pre-mint ids.
func (e *Engine) resolveSession(ctx context.Context, id string) (*core.ChatSession, error) {
	if id == "" {
		return &core.ChatSession{Id: uuid.NewString(), Project: e.project}, nil
	}

	session, err := e.sessions.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &core.ChatSession{Id: id, Project: e.project}, nil
		}
		return nil, err
	}

	// A session id belongs to exactly one project
	if session.Project != e.project {
		return nil, fmt.Errorf("%w: chat %s", core.ErrNotFound, id)
	}
	return session, nil
}
