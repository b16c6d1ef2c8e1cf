package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arosell/go-docsearch/internal/domain"
	"github.com/arosell/go-docsearch/internal/service"
)

// AuditWriter persists a record of every tool call. A nil writer disables
// auditing.
type AuditWriter interface {
	WriteAudit(action, resource, resourceID, details, ip, userAgent string) error
}

// Server implements a Model Context Protocol (MCP) server. It exposes the
// document index as tools for external AI agents.
type Server struct {
	searchService *service.SearchService
	ingestService *service.IngestService
	audit         AuditWriter
	port          string
}

// NewServer creates a new MCP server.
func NewServer(searchService *service.SearchService, ingestService *service.IngestService, audit AuditWriter, port string) *Server {
	return &Server{
		searchService: searchService,
		ingestService: ingestService,
		audit:         audit,
		port:          port,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)

	slog.Info("MCP server starting", "port", s.port)
	return http.ListenAndServe(":"+s.port, mux)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "docsearch",
				"version": "1.0.0",
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial endpoint message
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	w.(http.Flusher).Flush()

	// Keep connection alive
	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "search_documents",
			Description: "Search ingested documents using semantic similarity",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query"},
					"top_k": {"type": "integer", "description": "Maximum number of results"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "list_documents",
			Description: "List all documents in the index with passage counts",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	if s.audit != nil {
		args := string(req.Arguments)
		if args == "" {
			args = "{}"
		}
		go func() {
			if err := s.audit.WriteAudit(domain.AuditActionMCPCall, "tool", req.Name, args, "", ""); err != nil {
				slog.Error("failed to write audit log", "error", err)
			}
		}()
	}

	switch req.Name {
	case "search_documents":
		var args struct {
			Query string `json:"query"`
			TopK  int    `json:"top_k"`
		}
		json.Unmarshal(req.Arguments, &args)

		results, err := s.searchService.Search(ctx, args.Query, args.TopK)
		if err != nil {
			return nil, err
		}

		text := "No relevant passages found."
		if len(results) > 0 {
			text = ""
			for _, r := range results {
				text += fmt.Sprintf("[%s, passage %d, score %.2f]\n%s\n\n",
					r.Filename, r.Position, r.Score, r.Text)
			}
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": text},
			},
		}, nil

	case "list_documents":
		docs, err := s.ingestService.List(ctx)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("%d documents indexed.\n", len(docs))
		for _, d := range docs {
			text += fmt.Sprintf("- %s (%s, %d passages)\n", d.Filename, d.ID, d.PassageCount)
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": text},
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
