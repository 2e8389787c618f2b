package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dou/internal/models"
)

const maxTextSize = 1 << 20 // 1 MB

var allowedMIME = map[string]bool{
	"text/plain":      true,
	"text/markdown":   true,
	"text/x-markdown": true,
}

type importResult struct {
	Project  string         `json:"project"`
	Checksum string         `json:"checksum"`
	Nodes    []importedNode `json:"nodes"`
}

type importedNode struct {
	ID    models.NodeID `json:"id"`
	Title string        `json:"title"`
}

func (s *Server) importText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data []byte
	if strings.HasPrefix(rawURL, "data:") {
		data, err = decodeDataURI(rawURL)
	} else {
		data, err = fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := validateText(data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	defer s.svc.Release(project)
	nodes, err := s.svc.ImportText(ctx, project, req.GetString("title", ""), string(data), req.GetBool("split", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sum, err := s.svc.SaveProject(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := importResult{Project: project, Checksum: sum}
	for _, n := range nodes {
		res.Nodes = append(res.Nodes, importedNode{ID: n.ID, Title: n.Title})
	}
	out, _ := json.Marshal(res)
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a data:[<mediatype>][;base64],<data> URI. A missing
// media type means text/plain.
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}

	meta := rest[:commaIdx]
	encoded := rest[commaIdx+1:]

	mediaType := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if !allowedMIME[mediaType] {
		return nil, fmt.Errorf("unsupported MIME type in data URI: %s", mediaType)
	}

	if !strings.HasSuffix(meta, ";base64") {
		data, err := url.PathUnescape(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid data URI encoding: %w", err)
		}
		return []byte(data), nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return data, nil
}

// fetchHTTP downloads text from an HTTP/HTTPS URL with security checks.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}

	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if !allowedMIME[mediaType] {
			return nil, fmt.Errorf("unsupported content type: %s", ct)
		}
	}

	limited := io.LimitReader(resp.Body, maxTextSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxTextSize {
		return nil, fmt.Errorf("text too large: exceeds %d bytes", maxTextSize)
	}
	return data, nil
}

// checkBlockedHost rejects loopback and cloud metadata addresses.
func checkBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("blocked host: %s", host)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(ips) == 0 {
			return nil //nolint:nilerr // let http.Client handle DNS failures
		}
		ip = ips[0]
	}

	if ip.IsLoopback() {
		return fmt.Errorf("blocked host: loopback address %s", host)
	}
	// AWS/GCP/Azure metadata endpoint.
	if ip.Equal(net.ParseIP("169.254.169.254")) {
		return fmt.Errorf("blocked host: cloud metadata address %s", host)
	}
	return nil
}

// validateText verifies the content is non-empty UTF-8 text.
func validateText(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty text")
	}
	if len(data) > maxTextSize {
		return fmt.Errorf("text too large: %d bytes (max %d)", len(data), maxTextSize)
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("content is not valid UTF-8 text")
	}
	if detected := http.DetectContentType(data); !strings.HasPrefix(detected, "text/") {
		return fmt.Errorf("content does not appear to be text (detected: %s)", detected)
	}
	return nil
}
