package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dou/internal/project"
	"github.com/starford/dou/internal/projectservice"
	"github.com/starford/dou/internal/session"
	"github.com/starford/dou/internal/storage"
	"github.com/starford/dou/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	_, store := testutil.TestProjects(t)
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sessions := session.NewManager(store, session.DefaultConfig(), nil, logger)
	t.Cleanup(sessions.CloseAll)
	return New(store, projectservice.NewService(store, db, sessions)), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_projects":
		result, err = srv.listProjects(ctx, req)
	case "read_paths":
		result, err = srv.readPaths(ctx, req)
	case "build_prompt":
		result, err = srv.buildPrompt(ctx, req)
	case "search_nodes":
		result, err = srv.searchNodes(ctx, req)
	case "export_markdown":
		result, err = srv.exportMarkdown(ctx, req)
	case "create_project":
		result, err = srv.createProject(ctx, req)
	case "import_text":
		result, err = srv.importText(ctx, req)
	case "get_project_format":
		result, err = srv.getProjectFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateProjectAndReadPaths(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_project", map[string]any{
		"project": "plan.dou",
		"content": string(testutil.Document(t, "Intro", "Body")),
	})
	assert.Equal(t, "created: plan.dou (2 nodes)", resultText(r))

	r = callTool(t, srv, "read_paths", map[string]any{"project": "plan.dou"})
	require.False(t, r.IsError, resultText(r))
	var res projectservice.PathsResult
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &res))
	require.Len(t, res.Paths, 1)
	assert.Equal(t, "#1: Intro\nabout Intro\n\n#2: Body\nabout Body", res.Paths[0].Text)
}

func TestCreateProjectErrors(t *testing.T) {
	srv, store := testServer(t)
	testutil.WriteProject(t, store, "taken.dou", "A")

	cases := map[string]map[string]any{
		"missing project": {},
		"wrong extension": {"project": "notes.txt"},
		"already exists":  {"project": "taken.dou"},
		"malformed":       {"project": "bad.dou", "content": `{"version":"1.0"}`},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			r := callTool(t, srv, "create_project", args)
			assert.True(t, r.IsError, "got %q", resultText(r))
		})
	}
}

func TestReadPathsSeesExternalEdits(t *testing.T) {
	srv, store := testServer(t)
	testutil.WriteProject(t, store, "plan.dou", "Intro")

	r := callTool(t, srv, "read_paths", map[string]any{"project": "plan.dou"})
	require.Contains(t, resultText(r), "#1: Intro")

	testutil.WriteProject(t, store, "plan.dou", "Rewritten")
	r = callTool(t, srv, "read_paths", map[string]any{"project": "plan.dou"})
	assert.Contains(t, resultText(r), "#1: Rewritten")
}

func TestBuildPrompt(t *testing.T) {
	srv, store := testServer(t)
	testutil.WriteProject(t, store, "plan.dou", "Intro", "Body")

	r := callTool(t, srv, "build_prompt", map[string]any{
		"project":  "plan.dou",
		"question": "What next?",
		"path":     "1",
	})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), "#2: Body\nabout Body")
	assert.Contains(t, resultText(r), "User question: What next?")

	r = callTool(t, srv, "build_prompt", map[string]any{"project": "plan.dou", "question": "What next?"})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), "#1: Intro", "path defaults to all")

	for _, which := range []string{"active", "first", "7"} {
		r = callTool(t, srv, "build_prompt", map[string]any{
			"project":  "plan.dou",
			"question": "What next?",
			"path":     which,
		})
		assert.True(t, r.IsError, "path %q: got %q", which, resultText(r))
	}
}

func TestReadPathsMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_paths", map[string]any{"project": "nope.dou"})
	assert.True(t, r.IsError)
}

func TestListProjects(t *testing.T) {
	srv, store := testServer(t)
	testutil.WriteProject(t, store, "a.dou", "A")
	testutil.WriteProject(t, store, "sub/b.dou", "B")

	r := callTool(t, srv, "list_projects", map[string]any{})
	assert.Contains(t, resultText(r), "a.dou")
	assert.Contains(t, resultText(r), "sub/b.dou")

	r = callTool(t, srv, "list_projects", map[string]any{"folder": "sub"})
	assert.NotContains(t, resultText(r), "a.dou")
}

func TestSearchAndExport(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_project", map[string]any{
		"project": "plan.dou",
		"content": string(testutil.Document(t, "Intro", "Roadmap")),
	})

	r := callTool(t, srv, "search_nodes", map[string]any{"query": "Roadmap"})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), "plan.dou")

	r = callTool(t, srv, "export_markdown", map[string]any{"project": "plan.dou"})
	assert.Equal(t, "# Intro\n\nabout Intro\n\n# Roadmap\n\nabout Roadmap\n\n", resultText(r))
}

func TestImportTextDataURI(t *testing.T) {
	srv, store := testServer(t)
	testutil.WriteProject(t, store, "plan.dou")

	r := callTool(t, srv, "import_text", map[string]any{
		"project": "plan.dou",
		"url":     "data:text/markdown,%23%20One%0Afirst%0A%23%20Two%0Asecond",
		"split":   true,
	})
	require.False(t, r.IsError, resultText(r))
	var res importResult
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &res))
	require.Len(t, res.Nodes, 2)
	assert.Equal(t, "One", res.Nodes[0].Title)
	assert.Equal(t, "Two", res.Nodes[1].Title)

	data, err := store.Read("plan.dou")
	require.NoError(t, err)
	loaded, err := project.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Store.Len(), "imported nodes saved")
}

func TestImportTextBase64(t *testing.T) {
	srv, store := testServer(t)
	testutil.WriteProject(t, store, "plan.dou")

	uri := "data:;base64," + base64.StdEncoding.EncodeToString([]byte("plain words"))
	r := callTool(t, srv, "import_text", map[string]any{
		"project": "plan.dou",
		"url":     uri,
		"title":   "Given",
	})
	require.False(t, r.IsError, resultText(r))
	assert.Contains(t, resultText(r), `"title":"Given"`)
}

func TestImportTextRejected(t *testing.T) {
	srv, store := testServer(t)
	testutil.WriteProject(t, store, "plan.dou")

	cases := map[string]string{
		"image data":     "data:image/png;base64,iVBORw0KGgo=",
		"binary as text": "data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte{0x00, 0x01, 0xff}),
		"empty":          "data:text/plain,",
		"loopback":       "http://127.0.0.1/notes.md",
		"metadata":       "http://169.254.169.254/latest",
		"scheme":         "ftp://example.com/notes.md",
	}
	for name, uri := range cases {
		t.Run(name, func(t *testing.T) {
			r := callTool(t, srv, "import_text", map[string]any{"project": "plan.dou", "url": uri})
			assert.True(t, r.IsError, "got %q", resultText(r))
		})
	}

	r := callTool(t, srv, "import_text", map[string]any{"project": "missing.dou", "url": "data:,hello"})
	assert.True(t, r.IsError, "missing project")
}

func TestProjectFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_project_format", map[string]any{})
	assert.Equal(t, ProjectFormatContract, resultText(r))

	contents, err := srv.readProjectFormatResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "dou://project-format", tc.URI)
}
