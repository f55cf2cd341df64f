package server

import (
	"time"

	"github.com/stophobia/restai/core"
)

// Wire schemas. These mirror the domain types but are not contractual; the
// domain packages never depend on them.

type createProjectRequest struct {
	Name       string `json:"name" validate:"required"`
	Embeddings string `json:"embeddings" validate:"required"`
	LLM        string `json:"llm" validate:"required"`
	System     string `json:"system"`
	Sandboxed  bool   `json:"sandboxed"`
}

type editProjectRequest struct {
	Embeddings *string `json:"embeddings"`
	LLM        *string `json:"llm"`
	System     *string `json:"system"`
	Sandboxed  *bool   `json:"sandboxed"`
}

type projectResponse struct {
	Name       string    `json:"name"`
	Embeddings string    `json:"embeddings"`
	LLM        string    `json:"llm"`
	System     string    `json:"system,omitempty"`
	Sandboxed  bool      `json:"sandboxed"`
	Chunks     int       `json:"chunks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toProjectResponse(project *core.Project, chunks int) projectResponse {
	return projectResponse{
		Name:       project.Name,
		Embeddings: project.Embeddings,
		LLM:        project.LLM,
		System:     project.System,
		Sandboxed:  project.Sandboxed,
		Chunks:     chunks,
		CreatedAt:  project.CreatedAt,
		UpdatedAt:  project.UpdatedAt,
	}
}

type ingestURLRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Strategy string `json:"strategy" validate:"omitempty,oneof=fetch render crawl"`
}

type ingestResponse struct {
	Source   string    `json:"source"`
	Ingested int       `json:"ingested"`
	Ids      []core.ID `json:"ids"`
}

type findSourceRequest struct {
	Source string `json:"source" validate:"required"`
}

type chunkResponse struct {
	Id       core.ID  `json:"id"`
	Content  string   `json:"content"`
	Source   string   `json:"source"`
	Keywords []string `json:"keywords,omitempty"`
	Score    float32  `json:"score,omitempty"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

type questionRequest struct {
	Question string `json:"question" validate:"required"`
	System   string `json:"system"`
	K        int    `json:"k" validate:"omitempty,min=1,max=50"`
}

type answerResponse struct {
	Answer  string          `json:"answer"`
	Sources []chunkResponse `json:"sources"`
	ChatId  string          `json:"chat_id,omitempty"`
}

type chatRequest struct {
	Message string `json:"message" validate:"required"`
	Id      string `json:"id"`
	System  string `json:"system"`
	K       int    `json:"k" validate:"omitempty,min=1,max=50"`
}

type chatTurnResponse struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

type infoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Embedders []string `json:"embedders"`
	LLMs      []string `json:"llms"`
}
