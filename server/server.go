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

package server

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/stophobia/restai"
)

// Version is reported by GET /info.
var Version = "dev"

// Server is the HTTP boundary over a Brain. It holds no domain state of its
// own; every handler translates a request into a Brain call and the result
// back into a wire schema.
type Server struct {
	brain    *restai.Brain
	app      *fiber.App
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer assembles the Fiber app and its routes around the given brain.
func NewServer(brain *restai.Brain, opts ...Option) *Server {
	s := &Server{
		brain:    brain,
		validate: validator.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler:          newErrorHandler(s.logger),
		DisableStartupMessage: true,
	})
	s.app.Use(recover.New())
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/info", s.handleInfo)

	projects := s.app.Group("/projects")
	projects.Get("/", s.handleListProjects)
	projects.Post("/", s.handleCreateProject)
	projects.Get("/:name", s.handleGetProject)
	projects.Patch("/:name", s.handleEditProject)
	projects.Delete("/:name", s.handleDeleteProject)

	embeddings := projects.Group("/:name/embeddings")
	embeddings.Post("/reset", s.handleResetEmbeddings)
	embeddings.Post("/reindex", s.handleReindex)
	embeddings.Post("/find", s.handleFindBySource)
	embeddings.Post("/ingest/url", s.handleIngestURL)
	embeddings.Post("/ingest/upload", s.handleIngestUpload)
	embeddings.Get("/urls", s.handleListSources)
	embeddings.Get("/files", s.handleListFiles)
	embeddings.Delete("/source", s.handleDeleteSource)
	embeddings.Delete("/chunk/:id", s.handleDeleteChunk)

	projects.Post("/:name/question", s.handleQuestion)
	projects.Post("/:name/chat", s.handleChat)
	projects.Get("/:name/chat/:id", s.handleChatHistory)
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP on addr until Shutdown or a fatal error.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// parseBody decodes the JSON body into dst and validates it. Malformed JSON
// is a 400; tag violations are a 422 with per-field messages.
func (s *Server) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return errBadRequest("invalid JSON request")
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fmt.Sprintf("failed on '%s' tag", fe.Tag())
		}
		return newValidationError(fields)
	}
	return nil
}
