package api

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dou/internal/canvas"
	"github.com/starford/dou/internal/index"
	"github.com/starford/dou/internal/models"
	"github.com/starford/dou/internal/projectservice"
)

// CreateProjectRequest is the request body for creating a project. An
// absent document creates an empty project.
type CreateProjectRequest struct {
	Path     string          `json:"path" example:"plans/launch.dou" validate:"required"`
	Document json.RawMessage `json:"document,omitempty"`
}

func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Path, validation.Required),
	)
}

// UpdateProjectRequest is the request body for replacing a project file.
type UpdateProjectRequest struct {
	Document json.RawMessage `json:"document" validate:"required"`
}

func (r UpdateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Document, validation.Required),
	)
}

// EventsRequest carries raw input events for a project's canvas.
type EventsRequest struct {
	Events []canvas.Event `json:"events" validate:"required"`
}

// ImportRequest creates nodes from text.
type ImportRequest struct {
	Title string `json:"title,omitempty" example:"Notes"`
	Text  string `json:"text" example:"# Heading\nBody"`
	Split bool   `json:"split,omitempty"`
}

// NodePatchRequest edits one node. Absent fields are left alone.
type NodePatchRequest struct {
	Text  *string `json:"text,omitempty"`
	Color *string `json:"color,omitempty" example:"Blue"`
}

func (r NodePatchRequest) Validate() error {
	colors := make([]any, 0, len(models.Palette()))
	for _, c := range models.Palette() {
		colors = append(colors, string(c))
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Color, validation.NilOrNotEmpty, validation.In(colors...)),
	)
}

// ConnectRequest links two nodes.
type ConnectRequest struct {
	StartNode string          `json:"start_node" validate:"required"`
	EndNode   string          `json:"end_node" validate:"required"`
	EdgeType  models.EdgeType `json:"edge_type,omitempty" example:"right"`
}

func (r ConnectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StartNode, validation.Required),
		validation.Field(&r.EndNode, validation.Required),
		validation.Field(&r.EdgeType, validation.In(models.EdgeLeft, models.EdgeRight, models.EdgeTop, models.EdgeBottom)),
	)
}

// ProjectListResponse wraps paginated project listings.
type ProjectListResponse struct {
	Projects []projectservice.ProjectListItem `json:"projects" validate:"required"`
	Total    int                              `json:"total" example:"42" validate:"required"`
}

// SaveResponse reports the checksum of a saved project.
type SaveResponse struct {
	Checksum string `json:"checksum" validate:"required"`
}

// PromptResponse wraps a built prompt.
type PromptResponse struct {
	Prompt string `json:"prompt" validate:"required"`
}

// NodesResponse wraps created nodes.
type NodesResponse struct {
	Nodes []*models.Node `json:"nodes" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Project string `json:"project" example:"plans/launch.dou" validate:"required"`
	NodeID  string `json:"node_id" validate:"required"`
	Title   string `json:"title" example:"Intro" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

func searchResults(rows []index.SearchResult) []SearchResult {
	out := make([]SearchResult, len(rows))
	for i, r := range rows {
		out[i] = SearchResult{Project: r.Project, NodeID: r.NodeID, Title: r.Title, Snippet: r.Snippet}
	}
	return out
}
