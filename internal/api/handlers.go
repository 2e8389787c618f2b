package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/dou/internal/checksum"
	"github.com/starford/dou/internal/models"
	"github.com/starford/dou/internal/projectservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *projectservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *projectservice.Service) *Handler {
	return &Handler{svc: svc}
}

// projectPath extracts the project path from the URL. Nested projects are
// addressed with encoded slashes (plans%2Flaunch.dou).
func projectPath(r *http.Request) string {
	raw := chi.URLParam(r, "project")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListProjects handles GET /api/projects.
//
//	@Summary		List indexed projects
//	@Tags			projects
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	ProjectListResponse
//	@Security		BearerAuth
//	@Router			/projects [get]
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListProjects(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, "list projects", err)
		return
	}
	if items == nil {
		items = []projectservice.ProjectListItem{}
	}
	writeJSON(w, http.StatusOK, ProjectListResponse{Projects: items, Total: total})
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create a project file
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project to create"
//	@Success		201		{object}	projectservice.ProjectDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	detail, err := h.svc.CreateProject(r.Context(), req.Path, req.Document)
	if err != nil {
		writeServiceError(w, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

// GetProject handles GET /api/projects/{project}.
//
//	@Summary		Get a project document
//	@Tags			projects
//	@Produce		json
//	@Param			project	path		string	true	"Project path"
//	@Success		200		{object}	projectservice.ProjectDetail
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetProject(r.Context(), projectPath(r))
	if err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(detail.Checksum))
	writeJSON(w, http.StatusOK, detail)
}

// UpdateProject handles PUT /api/projects/{project}.
//
//	@Summary		Replace a project with optimistic concurrency
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			project		path		string					true	"Project path"
//	@Param			If-Match	header		string					false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body		UpdateProjectRequest	true	"New document"
//	@Success		200			{object}	projectservice.ProjectDetail
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project} [put]
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req UpdateProjectRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	ifMatch := checksum.FromETag(r.Header.Get("If-Match"))

	detail, err := h.svc.UpdateProject(r.Context(), projectPath(r), req.Document, ifMatch)
	if err != nil {
		writeServiceError(w, "update project", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(detail.Checksum))
	writeJSON(w, http.StatusOK, detail)
}

// DeleteProject handles DELETE /api/projects/{project}.
//
//	@Summary		Delete a project
//	@Tags			projects
//	@Param			project	path	string	true	"Project path"
//	@Success		204		"Project deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project} [delete]
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProject(r.Context(), projectPath(r)); err != nil {
		writeServiceError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveProject handles POST /api/projects/{project}/save.
//
//	@Summary		Write the open canvas back to its file
//	@Tags			canvas
//	@Produce		json
//	@Param			project	path		string	true	"Project path"
//	@Success		200		{object}	SaveResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/save [post]
func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.SaveProject(r.Context(), projectPath(r))
	if err != nil {
		writeServiceError(w, "save project", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(sum))
	writeJSON(w, http.StatusOK, SaveResponse{Checksum: sum})
}

// Events handles POST /api/projects/{project}/events.
//
//	@Summary		Feed raw input events to the canvas
//	@Tags			canvas
//	@Accept			json
//	@Produce		json
//	@Param			project	path		string			true	"Project path"
//	@Param			body	body		EventsRequest	true	"Input events"
//	@Success		200		{object}	canvas.Snapshot
//	@Security		BearerAuth
//	@Router			/projects/{project}/events [post]
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	var req EventsRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	snap, err := h.svc.Input(r.Context(), projectPath(r), req.Events)
	if err != nil {
		writeServiceError(w, "canvas input", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Canvas handles GET /api/projects/{project}/canvas.
//
//	@Summary		Get the canvas state
//	@Tags			canvas
//	@Produce		json
//	@Param			project	path		string	true	"Project path"
//	@Success		200		{object}	canvas.Snapshot
//	@Security		BearerAuth
//	@Router			/projects/{project}/canvas [get]
func (h *Handler) Canvas(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Canvas(r.Context(), projectPath(r))
	if err != nil {
		writeServiceError(w, "canvas", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Paths handles GET /api/projects/{project}/paths.
//
//	@Summary		List traversal paths
//	@Tags			paths
//	@Produce		json
//	@Param			project	path		string	true	"Project path"
//	@Success		200		{object}	projectservice.PathsResult
//	@Security		BearerAuth
//	@Router			/projects/{project}/paths [get]
func (h *Handler) Paths(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Paths(r.Context(), projectPath(r))
	if err != nil {
		writeServiceError(w, "paths", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Prompt handles GET /api/projects/{project}/prompt.
//
//	@Summary		Build an LLM prompt from path context
//	@Tags			paths
//	@Produce		json
//	@Param			project	path		string	true	"Project path"
//	@Param			path	query		string	false	"all, active or a 1-based path number"
//	@Param			q		query		string	true	"Question"
//	@Success		200		{object}	PromptResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/prompt [get]
func (h *Handler) Prompt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	question := q.Get("q")
	if question == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	prompt, err := h.svc.Prompt(r.Context(), projectPath(r), q.Get("path"), question)
	if err != nil {
		writeServiceError(w, "prompt", err)
		return
	}
	writeJSON(w, http.StatusOK, PromptResponse{Prompt: prompt})
}

// Export handles GET /api/projects/{project}/export.
//
//	@Summary		Export paths as Markdown
//	@Tags			paths
//	@Produce		text/markdown
//	@Param			project	path	string	true	"Project path"
//	@Success		200		{string}	string
//	@Security		BearerAuth
//	@Router			/projects/{project}/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	md, err := h.svc.Markdown(r.Context(), projectPath(r))
	if err != nil {
		writeServiceError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}

// ImportNodes handles POST /api/projects/{project}/nodes.
//
//	@Summary		Create nodes from text
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			project	path		string			true	"Project path"
//	@Param			body	body		ImportRequest	true	"Text to import"
//	@Success		201		{object}	NodesResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/nodes [post]
func (h *Handler) ImportNodes(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	nodes, err := h.svc.ImportText(r.Context(), projectPath(r), req.Title, req.Text, req.Split)
	if err != nil {
		writeServiceError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusCreated, NodesResponse{Nodes: nodes})
}

// PatchNode handles PATCH /api/projects/{project}/nodes/{id}.
//
//	@Summary		Edit a node's text or colour
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			project	path		string				true	"Project path"
//	@Param			id		path		string				true	"Node id"
//	@Param			body	body		NodePatchRequest	true	"Changes"
//	@Success		200		{object}	models.Node
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/nodes/{id} [patch]
func (h *Handler) PatchNode(w http.ResponseWriter, r *http.Request) {
	var req NodePatchRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	id := models.NodeID(chi.URLParam(r, "id"))
	n, err := h.svc.UpdateNode(r.Context(), projectPath(r), id, projectservice.NodePatch{Text: req.Text, Color: req.Color})
	if err != nil {
		writeServiceError(w, "patch node", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Connect handles POST /api/projects/{project}/connections.
//
//	@Summary		Connect two nodes
//	@Tags			connections
//	@Accept			json
//	@Produce		json
//	@Param			project	path		string			true	"Project path"
//	@Param			body	body		ConnectRequest	true	"Endpoints"
//	@Success		201		{object}	models.Connection
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/connections [post]
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if !decodeJSON(w, r, maxBodyBytes, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	conn, err := h.svc.Connect(r.Context(), projectPath(r),
		models.NodeID(req.StartNode), models.NodeID(req.EndNode), req.EdgeType)
	if err != nil {
		writeServiceError(w, "connect", err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// Disconnect handles DELETE /api/projects/{project}/connections.
//
//	@Summary		Remove a connection
//	@Tags			connections
//	@Param			project		path	string	true	"Project path"
//	@Param			start_node	query	string	true	"Output node"
//	@Param			end_node	query	string	true	"Input node"
//	@Success		204			"Connection removed"
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/connections [delete]
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start_node"), q.Get("end_node")
	if start == "" || end == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("start_node and end_node are required"))
		return
	}
	if err := h.svc.Disconnect(r.Context(), projectPath(r), models.NodeID(start), models.NodeID(end)); err != nil {
		writeServiceError(w, "disconnect", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Search node titles and text across projects
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: searchResults(results)})
}
