package server

import (
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/stophobia/restai"
	"github.com/stophobia/restai/answer"
	"github.com/stophobia/restai/core"
	"github.com/stophobia/restai/index"
)

func (s *Server) handleInfo(c *fiber.Ctx) error {
	return c.JSON(infoResponse{
		Name:      "restai",
		Version:   Version,
		Embedders: s.brain.Registry().EmbedderNames(),
		LLMs:      s.brain.Registry().LLMNames(),
	})
}

func (s *Server) handleListProjects(c *fiber.Ctx) error {
	projects, err := s.brain.ListProjects(c.Context())
	if err != nil {
		return err
	}

	resp := make([]projectResponse, len(projects))
	for i, project := range projects {
		resp[i] = toProjectResponse(project, 0)
	}
	return c.JSON(resp)
}

func (s *Server) handleCreateProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	rt, err := s.brain.CreateProject(c.Context(), &core.Project{
		Name:       req.Name,
		Embeddings: req.Embeddings,
		LLM:        req.LLM,
		System:     req.System,
		Sandboxed:  req.Sandboxed,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toProjectResponse(rt.Project, 0))
}

func (s *Server) handleGetProject(c *fiber.Ctx) error {
	info, err := s.brain.Info(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(toProjectResponse(info.Project, info.Chunks))
}

func (s *Server) handleEditProject(c *fiber.Ctx) error {
	var req editProjectRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	err := s.brain.EditProject(c.Context(), c.Params("name"), core.ProjectPatch{
		Embeddings: req.Embeddings,
		LLM:        req.LLM,
		System:     req.System,
		Sandboxed:  req.Sandboxed,
	})
	if err != nil {
		return err
	}
	return s.handleGetProject(c)
}

func (s *Server) handleDeleteProject(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.brain.DeleteProject(c.Context(), name); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": name})
}

func (s *Server) handleResetEmbeddings(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.brain.ResetEmbeddings(c.Context(), name); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reset": name})
}

func (s *Server) handleReindex(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.brain.Reindex(c.Context(), name, nil); err != nil {
		return err
	}
	return s.handleGetProject(c)
}

// handleFindBySource returns every chunk derived from a source.
func (s *Server) handleFindBySource(c *fiber.Ctx) error {
	var req findSourceRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	rt, err := s.requireProject(c)
	if err != nil {
		return err
	}

	chunks, err := rt.Index.Query(c.Context(), index.Filter{Source: req.Source})
	if err != nil {
		return err
	}

	resp := make([]chunkResponse, len(chunks))
	for i, chunk := range chunks {
		resp[i] = chunkResponse{
			Id:       chunk.Id,
			Content:  chunk.Content,
			Source:   chunk.Source,
			Keywords: chunk.Keywords,
		}
	}
	return c.JSON(resp)
}

func (s *Server) handleIngestURL(c *fiber.Ctx) error {
	var req ingestURLRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	ids, err := s.brain.IngestURL(c.Context(), c.Params("name"), req.URL, req.Strategy)
	if err != nil {
		return err
	}

	return c.JSON(ingestResponse{Source: req.URL, Ingested: len(ids), Ids: ids})
}

func (s *Server) handleIngestUpload(c *fiber.Ctx) error {
	name := c.Params("name")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errBadRequest("missing multipart field 'file'")
	}

	// The saved path doubles as the source, so re-uploads of the same
	// filename dedup against each other.
	path := filepath.Join(s.brain.UploadsDir(name), filepath.Base(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, path); err != nil {
		return err
	}

	ids, err := s.brain.IngestFile(c.Context(), name, path, path)
	if err != nil {
		return err
	}

	return c.JSON(ingestResponse{Source: path, Ingested: len(ids), Ids: ids})
}

func (s *Server) handleListSources(c *fiber.Ctx) error {
	sources, err := s.brain.ListSources(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	if sources == nil {
		sources = []string{}
	}
	return c.JSON(sources)
}

func (s *Server) handleListFiles(c *fiber.Ctx) error {
	files, err := s.brain.ListFiles(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	if files == nil {
		files = []string{}
	}
	return c.JSON(files)
}

// handleDeleteSource removes all chunks of a source given via the ?source=
// query parameter (sources are paths and URLs, which do not survive as path
// segments).
func (s *Server) handleDeleteSource(c *fiber.Ctx) error {
	source := c.Query("source")
	if source == "" {
		return errBadRequest("missing query parameter 'source'")
	}

	deleted, err := s.brain.DeleteSource(c.Context(), c.Params("name"), source)
	if err != nil {
		return err
	}
	return c.JSON(deleteResponse{Deleted: deleted})
}

func (s *Server) handleDeleteChunk(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return errBadRequest("invalid chunk id")
	}

	if err := s.brain.DeleteChunk(c.Context(), c.Params("name"), core.ID(id)); err != nil {
		return err
	}
	return c.JSON(deleteResponse{Deleted: 1})
}

func (s *Server) handleQuestion(c *fiber.Ctx) error {
	var req questionRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	result, err := s.brain.Question(c.Context(), c.Params("name"), restai.QuestionInput{
		Question: req.Question,
		System:   req.System,
		K:        req.K,
	})
	if err != nil {
		return err
	}

	return c.JSON(toAnswerResponse(result, ""))
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	id, result, err := s.brain.Chat(c.Context(), c.Params("name"), restai.ChatInput{
		Message: req.Message,
		Id:      req.Id,
		System:  req.System,
		K:       req.K,
	})
	if err != nil {
		return err
	}

	return c.JSON(toAnswerResponse(result, id))
}

func (s *Server) handleChatHistory(c *fiber.Ctx) error {
	turns, err := s.brain.ChatHistory(c.Context(), c.Params("name"), c.Params("id"))
	if err != nil {
		return err
	}

	resp := make([]chatTurnResponse, len(turns))
	for i, turn := range turns {
		resp[i] = chatTurnResponse{
			Question:  turn.Question,
			Answer:    turn.Answer,
			Timestamp: turn.Timestamp,
		}
	}
	return c.JSON(resp)
}

func (s *Server) requireProject(c *fiber.Ctx) (*restai.Runtime, error) {
	rt, err := s.brain.FindProject(c.Context(), c.Params("name"))
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, apiError{
			Code:    fiber.StatusNotFound,
			Message: "project not found: " + c.Params("name"),
		}
	}
	return rt, nil
}

func toAnswerResponse(result *answer.Result, chatId string) answerResponse {
	sources := make([]chunkResponse, len(result.Sources))
	for i, chunk := range result.Sources {
		sources[i] = chunkResponse{
			Id:      chunk.Id,
			Content: chunk.Content,
			Source:  chunk.Source,
		}
	}
	return answerResponse{Answer: result.Answer, Sources: sources, ChatId: chatId}
}
