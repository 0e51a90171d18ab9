// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the rule archive to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/depari/srules/internal/index"
	"github.com/depari/srules/internal/parser"
	"github.com/depari/srules/internal/rules"
	"github.com/depari/srules/internal/ruleservice"
	"github.com/depari/srules/internal/search"
)

// Server wraps the MCP server with rule archive tools.
type Server struct {
	mcp      *server.MCPServer
	svc      *ruleservice.Service
	searcher search.Searcher
}

// New creates a new MCP server with all tools registered.
func New(svc *ruleservice.Service, searcher search.Searcher) *Server {
	s := &Server{svc: svc, searcher: searcher}

	s.mcp = server.NewMCPServer(
		"srules",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_rules",
		mcp.WithDescription("Search the coding rule archive by keyword. Matching is typo tolerant."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchRules)

	s.mcp.AddTool(mcp.NewTool("read_rule",
		mcp.WithDescription("Read the full content and metadata of a rule by its slug."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Rule slug (e.g. go-error-wrapping)")),
	), s.readRule)

	s.mcp.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List rules, optionally filtered by category, tag or difficulty."),
		mcp.WithString("category", mcp.Description("Optional category filter")),
		mcp.WithString("tag", mcp.Description("Optional tag filter")),
		mcp.WithString("difficulty", mcp.Description("Optional difficulty filter (beginner, intermediate, advanced)")),
	), s.listRules)

	s.mcp.AddTool(mcp.NewTool("validate_rule",
		mcp.WithDescription("Validate a rule document against the archive format. "+
			"Use before proposing a rule to catch structural problems early. Read the "+
			"contract first via the get_rule_contract tool or the srules://rule-format resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full markdown document including YAML frontmatter")),
	), s.validateRule)

	s.mcp.AddTool(mcp.NewTool("get_rule_contract",
		mcp.WithDescription("Returns the canonical rule document format contract. "+
			"Call this before drafting or validating rule proposals."),
	), s.getRuleContract)

	// Resource: rule format contract.
	s.mcp.AddResource(
		mcp.NewResource("srules://rule-format", "Rule Format Contract",
			mcp.WithResourceDescription("Canonical markdown rule document format that all rules must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRuleFormatResource,
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

func (s *Server) searchRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.searcher.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readRule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rule, err := s.svc.GetRule(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	out, _ := json.MarshalIndent(rule, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listRules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := index.ListOptions{}
	if v, err := req.RequireString("category"); err == nil {
		opts.Category = v
	}
	if v, err := req.RequireString("tag"); err == nil {
		opts.Tag = v
	}
	if v, err := req.RequireString("difficulty"); err == nil {
		opts.Difficulty = v
	}

	items, _, err := s.svc.ListRules(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s\t%s\t[%s]", it.Slug, it.Title, strings.Join(it.Category, ", ")))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no rules found"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) validateRule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := parser.Parse([]byte(content), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := rules.ValidateDocument(res); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("valid"), nil
}

func (s *Server) getRuleContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RuleFormatContract), nil
}

func (s *Server) readRuleFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "srules://rule-format",
			MIMEType: "text/markdown",
			Text:     RuleFormatContract,
		},
	}, nil
}
