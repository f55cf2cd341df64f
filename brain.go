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

package restai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stophobia/restai/ai"
	"github.com/stophobia/restai/ai/openai"
	"github.com/stophobia/restai/answer"
	"github.com/stophobia/restai/chat"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/index"
	"github.com/stophobia/restai/ingest"
	"github.com/stophobia/restai/reindex"
	"github.com/stophobia/restai/storage"
	"github.com/stophobia/restai/storage/badger"
)

// ErrSandboxed indicates a per-call override on a sandboxed project.
var ErrSandboxed = errors.New("sandboxed project rejects overrides")

// Runtime is the live binding of a project: resolved providers, the open
// index, and the per-project engines. Runtimes are created lazily and cached
// by the Brain; edits, resets, and deletes invalidate them.
type Runtime struct {
	Project  *core.Project
	Embedder ai.Embedder
	LLM      ai.LLM
	Index    *index.Index
	Engine   *answer.Engine

	chats *chat.Engine
}

// Brain orchestrates projects: lifecycle, ingestion, answering, and chat.
// All methods are safe for concurrent use; mutating index operations are
// serialized per project, chat turns per chat id.
type Brain struct {
	dataDir  string
	backend  *badger.Backend
	projects storage.ProjectRepository
	chats    storage.ChatRepository
	registry *ai.Registry
	pipeline *ingest.Pipeline

	mu       sync.RWMutex
	runtimes map[string]*Runtime

	projectLocks *core.KeyedMutex
	chatLocks    *core.KeyedMutex

	logger *slog.Logger
}

// BrainOption configures a Brain.
type BrainOption func(*brainOptions)

type brainOptions struct {
	aiConfig     *ai.Config
	registry     *ai.Registry
	logger       *slog.Logger
	pipelineOpts []ingest.Option
}

// WithAIConfig sets the configuration for the default provider registry.
// Ignored when WithRegistry is also given.
func WithAIConfig(config *ai.Config) BrainOption {
	return func(o *brainOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithRegistry replaces the default provider registry.
func WithRegistry(registry *ai.Registry) BrainOption {
	return func(o *brainOptions) {
		o.registry = registry
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) BrainOption {
	return func(o *brainOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPipelineOptions forwards options to the ingestion pipeline.
func WithPipelineOptions(opts ...ingest.Option) BrainOption {
	return func(o *brainOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// NewBrain opens (or creates) the service state under dataDir: the system
// store for project metadata and chat sessions, plus one index store per
// project under dataDir/indexes.
func NewBrain(dataDir string, opts ...BrainOption) (*Brain, error) {
	options := &brainOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	registry := options.registry
	if registry == nil {
		cfg := options.aiConfig
		registry = ai.NewRegistry()
		registry.RegisterEmbedder("openai", func() (ai.Embedder, error) {
			return openai.NewEmbedder(cfg)
		})
		registry.RegisterLLM("openai", func() (ai.LLM, error) {
			return openai.NewLLM(cfg)
		})
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "system"), false)
	if err != nil {
		return nil, err
	}

	pipeline, err := ingest.NewPipeline(ai.NewKeywordExtractor(), options.pipelineOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Brain{
		dataDir:      dataDir,
		backend:      backend,
		projects:     badger.NewProjectRepository(backend),
		chats:        badger.NewChatRepository(backend),
		registry:     registry,
		pipeline:     pipeline,
		runtimes:     make(map[string]*Runtime),
		projectLocks: core.NewKeyedMutex(),
		chatLocks:    core.NewKeyedMutex(),
		logger:       options.logger,
	}, nil
}

// Close closes all cached runtimes and the system store.
func (b *Brain) Close() error {
	b.mu.Lock()
	for name, rt := range b.runtimes {
		if err := rt.Index.Close(); err != nil {
			b.logger.Error("error closing project index", "project", name, "err", err)
		}
	}
	b.runtimes = make(map[string]*Runtime)
	b.mu.Unlock()

	return b.backend.Close()
}

// Registry returns the provider registry.
func (b *Brain) Registry() *ai.Registry {
	return b.registry
}

// UploadsDir returns the directory where a project's uploaded files live.
func (b *Brain) UploadsDir(name string) string {
	return filepath.Join(b.dataDir, "uploads", name)
}

func (b *Brain) indexPath(name string) string {
	return filepath.Join(b.dataDir, "indexes", name)
}

// FindProject returns the runtime for name, or (nil, nil) when no such
// project exists. The runtime is constructed lazily and cached.
func (b *Brain) FindProject(ctx context.Context, name string) (*Runtime, error) {
	b.mu.RLock()
	rt, ok := b.runtimes[name]
	b.mu.RUnlock()
	if ok {
		return rt, nil
	}

	return b.bindRuntime(ctx, name)
}

// requireRuntime resolves name to a runtime, turning absence into
// core.ErrNotFound for operations that address a project directly.
func (b *Brain) requireRuntime(ctx context.Context, name string) (*Runtime, error) {
	rt, err := b.FindProject(ctx, name)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, fmt.Errorf("%w: project %s", core.ErrNotFound, name)
	}
	return rt, nil
}

// bindRuntime resolves providers, opens the project's index store, and
// caches the assembled runtime. Returns (nil, nil) when the project does not
// exist.
//
// The metadata read and the cache insert happen in one critical section with
// eviction, so a lookup racing a delete or edit cannot re-install a runtime
// built from a record that no longer exists (or no longer has those
// provider bindings).
func (b *Brain) bindRuntime(ctx context.Context, name string) (*Runtime, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rt, ok := b.runtimes[name]; ok {
		return rt, nil
	}

	project, err := b.projects.GetProject(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	embedder, err := b.registry.Embedder(project.Embeddings)
	if err != nil {
		return nil, err
	}
	llm, err := b.registry.LLM(project.LLM)
	if err != nil {
		return nil, err
	}

	repo, err := badger.OpenIndexRepository(b.indexPath(project.Name), false)
	if err != nil {
		return nil, err
	}

	idx, err := index.New(repo, embedder, index.WithLogger(b.logger))
	if err != nil {
		repo.Close()
		return nil, err
	}

	engine, err := answer.NewEngine(idx, llm, answer.WithLogger(b.logger))
	if err != nil {
		idx.Close()
		return nil, err
	}

	chatEngine, err := chat.NewEngine(engine, b.chats, project.Name, chat.WithLogger(b.logger))
	if err != nil {
		idx.Close()
		return nil, err
	}

	rt := &Runtime{
		Project:  project,
		Embedder: embedder,
		LLM:      llm,
		Index:    idx,
		Engine:   engine,
		chats:    chatEngine,
	}
	b.runtimes[project.Name] = rt

	b.logger.Debug("bound project runtime", "project", project.Name,
		"embeddings", project.Embeddings, "llm", project.LLM)
	return rt, nil
}

// evictRuntime removes and closes the cached runtime for name, if any.
// In-flight operations still holding the old runtime fail with closed-store
// errors once the index is closed; the evicting operation (edit, reset,
// delete) wins and those requests abort.
func (b *Brain) evictRuntime(name string) {
	b.mu.Lock()
	rt, ok := b.runtimes[name]
	if ok {
		delete(b.runtimes, name)
	}
	b.mu.Unlock()

	if ok {
		if err := rt.Index.Close(); err != nil {
			b.logger.Error("error closing project index", "project", name, "err", err)
		}
	}
}

// CreateProject validates and persists a new project, eagerly initializing
// its empty index and uploads directory.
// Returns core.ErrAlreadyExists for duplicate names.
func (b *Brain) CreateProject(ctx context.Context, project *core.Project) (*Runtime, error) {
	if err := core.ValidateProject(project); err != nil {
		return nil, err
	}
	if !b.registry.HasEmbedder(project.Embeddings) {
		return nil, fmt.Errorf("%w: embeddings %q", core.ErrUnknownProvider, project.Embeddings)
	}
	if !b.registry.HasLLM(project.LLM) {
		return nil, fmt.Errorf("%w: llm %q", core.ErrUnknownProvider, project.LLM)
	}

	b.projectLocks.Lock(project.Name)
	defer b.projectLocks.Unlock(project.Name)

	if err := b.projects.AddProject(ctx, project); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: project %s", core.ErrAlreadyExists, project.Name)
		}
		return nil, err
	}

	if err := os.MkdirAll(b.UploadsDir(project.Name), 0755); err != nil {
		return nil, err
	}

	rt, err := b.bindRuntime(ctx, project.Name)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, fmt.Errorf("%w: project %s", core.ErrNotFound, project.Name)
	}

	b.logger.Info("project created", "project", project.Name)
	return rt, nil
}

// EditProject applies a partial update. An embeddings change does not
// migrate stored vectors; the index stays as-is until ResetEmbeddings or
// Reindex. Returns core.ErrNotFound if the project doesn't exist.
func (b *Brain) EditProject(ctx context.Context, name string, patch core.ProjectPatch) error {
	if patch.Embeddings != nil && !b.registry.HasEmbedder(*patch.Embeddings) {
		return fmt.Errorf("%w: embeddings %q", core.ErrUnknownProvider, *patch.Embeddings)
	}
	if patch.LLM != nil && !b.registry.HasLLM(*patch.LLM) {
		return fmt.Errorf("%w: llm %q", core.ErrUnknownProvider, *patch.LLM)
	}

	b.projectLocks.Lock(name)
	defer b.projectLocks.Unlock(name)

	project, err := b.projects.GetProject(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: project %s", core.ErrNotFound, name)
		}
		return err
	}

	embeddingsChanged := patch.Apply(project)
	if err := b.projects.UpdateProject(ctx, project); err != nil {
		return err
	}

	b.evictRuntime(name)

	if embeddingsChanged {
		b.logger.Warn("embeddings provider changed; stored vectors remain until reset or reindex",
			"project", name, "embeddings", project.Embeddings)
	}
	return nil
}

// DeleteProject removes the project's metadata, its index store, and its
// uploads directory. Returns core.ErrNotFound if the project doesn't exist.
func (b *Brain) DeleteProject(ctx context.Context, name string) error {
	b.projectLocks.Lock(name)
	defer b.projectLocks.Unlock(name)

	if err := b.projects.DeleteProject(ctx, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: project %s", core.ErrNotFound, name)
		}
		return err
	}

	b.evictRuntime(name)

	if err := os.RemoveAll(b.indexPath(name)); err != nil {
		return err
	}
	if err := os.RemoveAll(b.UploadsDir(name)); err != nil {
		return err
	}

	b.logger.Info("project deleted", "project", name)
	return nil
}

// ResetEmbeddings drops every chunk from the project's index and re-binds
// the currently configured embeddings provider.
func (b *Brain) ResetEmbeddings(ctx context.Context, name string) error {
	b.projectLocks.Lock(name)
	defer b.projectLocks.Unlock(name)

	// Rebuild the runtime so a provider changed via EditProject takes effect
	b.evictRuntime(name)

	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return err
	}

	if err := rt.Index.Reset(); err != nil {
		return err
	}
	if err := rt.Index.Persist(); err != nil {
		return err
	}

	b.logger.Info("embeddings reset", "project", name)
	return nil
}

// Reindex re-embeds every stored chunk in place with the currently
// configured embeddings provider, writing progress to the given writer.
func (b *Brain) Reindex(ctx context.Context, name string, progress io.Writer) error {
	b.projectLocks.Lock(name)
	defer b.projectLocks.Unlock(name)

	b.evictRuntime(name)

	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return err
	}

	reindexer, err := reindex.NewReindexer(rt.Index.Repository(), rt.Embedder, nil, progress)
	if err != nil {
		return err
	}

	processed, err := reindexer.Run(ctx)
	if err != nil {
		return err
	}

	b.logger.Info("reindex finished", "project", name, "chunks", processed)
	return nil
}

// IngestFile loads a file into the project's index. The source defaults to
// the path when empty. Returns the new chunk ids.
func (b *Brain) IngestFile(ctx context.Context, name, path, source string) ([]core.ID, error) {
	b.projectLocks.Lock(name)
	defer b.projectLocks.Unlock(name)

	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return nil, err
	}

	chunks, err := b.pipeline.IngestFile(ctx, rt.Index, path, source)
	if err != nil {
		return nil, err
	}
	return chunkIDs(chunks), nil
}

// IngestURL loads a URL into the project's index using the given fetch
// strategy (empty means plain fetch). Returns the new chunk ids.
func (b *Brain) IngestURL(ctx context.Context, name, rawURL, strategy string) ([]core.ID, error) {
	b.projectLocks.Lock(name)
	defer b.projectLocks.Unlock(name)

	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return nil, err
	}

	chunks, err := b.pipeline.IngestURL(ctx, rt.Index, rawURL, strategy)
	if err != nil {
		return nil, err
	}
	return chunkIDs(chunks), nil
}

// DeleteSource removes every chunk derived from source, plus the uploaded
// file when the source lives in the project's uploads directory.
// Returns the number of chunks removed; core.ErrNotFound when none exist.
func (b *Brain) DeleteSource(ctx context.Context, name, source string) (int, error) {
	b.projectLocks.Lock(name)
	defer b.projectLocks.Unlock(name)

	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return 0, err
	}

	chunks, err := rt.Index.Query(ctx, index.Filter{Source: source})
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: source %s", core.ErrNotFound, source)
	}

	ids := chunkIDs(chunks)
	if err := rt.Index.Delete(ctx, ids...); err != nil {
		return 0, err
	}
	if err := rt.Index.Persist(); err != nil {
		return 0, err
	}

	if strings.HasPrefix(source, b.UploadsDir(name)+string(os.PathSeparator)) {
		if err := os.Remove(source); err != nil && !os.IsNotExist(err) {
			b.logger.Warn("could not remove uploaded file", "path", source, "err", err)
		}
	}

	return len(ids), nil
}

// DeleteChunk removes a single chunk by id.
// Returns core.ErrNotFound if the chunk doesn't exist.
func (b *Brain) DeleteChunk(ctx context.Context, name string, id core.ID) error {
	b.projectLocks.Lock(name)
	defer b.projectLocks.Unlock(name)

	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return err
	}

	chunks, err := rt.Index.Query(ctx, index.Filter{Ids: []core.ID{id}})
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%w: chunk %d", core.ErrNotFound, id)
	}

	if err := rt.Index.Delete(ctx, id); err != nil {
		return err
	}
	return rt.Index.Persist()
}

// ListSources returns the distinct sources ingested into the project.
func (b *Brain) ListSources(ctx context.Context, name string) ([]string, error) {
	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return nil, err
	}
	return rt.Index.ListSources(ctx)
}

// ListFiles enumerates the files in the project's uploads directory.
func (b *Brain) ListFiles(ctx context.Context, name string) ([]string, error) {
	if _, err := b.requireRuntime(ctx, name); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(b.UploadsDir(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// ProjectInfo is project metadata together with its index size.
type ProjectInfo struct {
	Project *core.Project
	Chunks  int
}

// Info returns the project's metadata and chunk count.
func (b *Brain) Info(ctx context.Context, name string) (*ProjectInfo, error) {
	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return nil, err
	}

	count, err := rt.Index.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &ProjectInfo{Project: rt.Project, Chunks: count}, nil
}

// ListProjects returns all projects, ordered by name.
func (b *Brain) ListProjects(ctx context.Context) ([]*core.Project, error) {
	return b.projects.ListProjects(ctx)
}

// QuestionInput carries a one-shot question.
type QuestionInput struct {
	// Question is the text to answer. Required.
	Question string

	// System overrides the project persona for this call. Rejected on
	// sandboxed projects.
	System string

	// K overrides the retrieval top-k when positive.
	K int
}

// Question answers a one-shot question against the project's index.
func (b *Brain) Question(ctx context.Context, name string, in QuestionInput) (*answer.Result, error) {
	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return nil, err
	}

	system, err := effectiveSystem(rt.Project, in.System)
	if err != nil {
		return nil, err
	}

	return rt.Engine.Answer(ctx, answer.Input{
		Question: in.Question,
		System:   system,
		K:        in.K,
	})
}

// ChatInput carries one chat turn.
type ChatInput struct {
	// Message is the user's message. Required.
	Message string

	// Id resumes an existing chat. Empty starts a new one.
	Id string

	// System overrides the project persona for this call. Rejected on
	// sandboxed projects.
	System string

	// K overrides the retrieval top-k when positive.
	K int
}

// Chat runs one conversation turn, returning the chat id and the answer.
// Turns on the same chat id are serialized.
func (b *Brain) Chat(ctx context.Context, name string, in ChatInput) (string, *answer.Result, error) {
	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return "", nil, err
	}

	system, err := effectiveSystem(rt.Project, in.System)
	if err != nil {
		return "", nil, err
	}

	// Mint the id before locking so the lock covers the whole first turn
	id := in.Id
	if id == "" {
		id = uuid.NewString()
	}

	key := name + "/" + id
	b.chatLocks.Lock(key)
	defer b.chatLocks.Unlock(key)

	return rt.chats.Converse(ctx, chat.Input{
		Message: in.Message,
		Id:      id,
		System:  system,
		K:       in.K,
	})
}

// ChatHistory returns the turns of an existing chat session.
func (b *Brain) ChatHistory(ctx context.Context, name, id string) ([]core.ChatTurn, error) {
	rt, err := b.requireRuntime(ctx, name)
	if err != nil {
		return nil, err
	}
	return rt.chats.History(ctx, id)
}

// effectiveSystem resolves the persona for a call: the override when given,
// else the project persona. Sandboxed projects reject overrides.
func effectiveSystem(project *core.Project, override string) (string, error) {
	if override == "" {
		return project.System, nil
	}
	if project.Sandboxed {
		return "", fmt.Errorf("%w: persona override on project %s", ErrSandboxed, project.Name)
	}
	return override, nil
}

func chunkIDs(chunks []*core.Chunk) []core.ID {
	ids := make([]core.ID, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.Id
	}
	return ids
}
