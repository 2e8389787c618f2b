// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes dou projects to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dou/internal/projectservice"
	"github.com/starford/dou/internal/storage"
)

const formatURI = "dou://project-format"

// Server wraps the MCP server with dou tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	svc   *projectservice.Service
}

// New creates a new MCP server with all dou tools registered. Every tool
// call releases the sessions it opened, so edits made by other processes are
// seen by the next call.
func New(store storage.Provider, svc *projectservice.Service) *Server {
	s := &Server{store: store, svc: svc}

	s.mcp = server.NewMCPServer(
		"dou",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List project files, optionally inside one folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listProjects)

	s.mcp.AddTool(mcp.NewTool("read_paths",
		mcp.WithDescription("Read the traversal paths of a project: every chain of connected nodes "+
			"from a start node, with the prompt context text of each path."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Relative path to the project (e.g. plans/launch.dou)")),
	), s.readPaths)

	s.mcp.AddTool(mcp.NewTool("build_prompt",
		mcp.WithDescription("Build a question prompt from the context of a project's paths."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Relative path to the project")),
		mcp.WithString("question", mcp.Required(), mcp.Description("The question to ask about the context")),
		mcp.WithString("path", mcp.Description("Path number (1-based) or \"all\" (default all)")),
	), s.buildPrompt)

	s.mcp.AddTool(mcp.NewTool("search_nodes",
		mcp.WithDescription("Full-text search through node titles and text across all projects."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNodes)

	s.mcp.AddTool(mcp.NewTool("export_markdown",
		mcp.WithDescription("Export a project's paths as Markdown, one section per node."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Relative path to the project")),
	), s.exportMarkdown)

	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create a new project file. Content MUST follow the dou project format. "+
			"Read it first via the get_project_format tool or the "+formatURI+" resource. "+
			"Empty content creates an empty project."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Relative path for the new project (must end with .dou)")),
		mcp.WithString("content", mcp.Description("JSON document following the dou project format")),
	), s.createProject)

	s.mcp.AddTool(mcp.NewTool("import_text",
		mcp.WithDescription("Add text from a URL or data URI to a project as new nodes and save it. "+
			"Only text/plain and text/markdown content is accepted."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Relative path to an existing project")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI of the text")),
		mcp.WithString("title", mcp.Description("Node title (default: frontmatter title or first heading)")),
		mcp.WithBoolean("split", mcp.Description("Create one chained node per # heading section")),
	), s.importText)

	s.mcp.AddTool(mcp.NewTool("get_project_format",
		mcp.WithDescription("Returns the dou project file format. "+
			"Call this before creating projects to ensure correct structure."),
	), s.getProjectFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Project Format",
			mcp.WithResourceDescription("The .dou project file format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readProjectFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listProjects(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := s.store.List(req.GetString("folder", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("no projects found"), nil
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) readPaths(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer s.svc.Release(project)

	res, err := s.svc.Paths(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) buildPrompt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	which := req.GetString("path", "")
	if which == "" {
		which = projectservice.PathAll
	}
	if which == projectservice.PathActive {
		// Sessions opened here have no pointer input.
		return mcp.NewToolResultError("path must be \"all\" or a path number"), nil
	}
	if which != projectservice.PathAll {
		if _, convErr := strconv.Atoi(which); convErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid path %q", which)), nil
		}
	}
	defer s.svc.Release(project)

	prompt, err := s.svc.Prompt(ctx, project, which, question)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(prompt), nil
}

func (s *Server) searchNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) exportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer s.svc.Release(project)

	md, err := s.svc.Markdown(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(md), nil
}

func (s *Server) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.CreateProject(ctx, project, []byte(req.GetString("content", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d nodes)", detail.Path, len(detail.Document.Nodes))), nil
}

func (s *Server) getProjectFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ProjectFormatContract), nil
}

func (s *Server) readProjectFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     ProjectFormatContract,
		},
	}, nil
}
