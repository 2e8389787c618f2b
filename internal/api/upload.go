package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

const maxUploadBytes = 5 << 20 // 5 MB

// importExts are the file types accepted by ImportFile.
var importExts = map[string]bool{".txt": true, ".md": true, ".markdown": true}

// ImportFile handles POST /api/projects/{project}/import (multipart/form-data,
// field "file"). Optional form fields: "title", and "split" set to "true" to
// create one node per heading.
//
//	@Summary		Import a text or Markdown file as nodes
//	@Tags			nodes
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			project	path		string	true	"Project path"
//	@Param			file	formData	file	true	"Text file"
//	@Success		201		{object}	NodesResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{project}/import [post]
func (h *Handler) ImportFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	if !importExts[strings.ToLower(filepath.Ext(header.Filename))] {
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported file type: "+header.Filename))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	split := r.FormValue("split") == "true"
	nodes, err := h.svc.ImportText(r.Context(), projectPath(r), r.FormValue("title"), string(data), split)
	if err != nil {
		writeServiceError(w, "import file", err)
		return
	}
	writeJSON(w, http.StatusCreated, NodesResponse{Nodes: nodes})
}
