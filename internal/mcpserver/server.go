// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Quire search tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/query"
	"github.com/starford/quire/internal/searchservice"
)

const articleFormatURI = "quire://article-format"

// Server wraps the MCP server with Quire tools.
type Server struct {
	mcp *server.MCPServer
	svc *searchservice.Service
}

// New creates a new MCP server with all Quire tools registered.
func New(svc *searchservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Quire",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_articles",
		mcp.WithDescription("Search published articles. Returns one page of hits with title, excerpt, "+
			"category, tags, date and a snippet around the first match."),
		mcp.WithString("q", mcp.Description("Free-text query; every whitespace-separated word is matched as a substring")),
		mcp.WithString("scope", mcp.Description("Fields to match: all, title, content or tags (default all)")),
		mcp.WithString("category", mcp.Description("Category slug to restrict to")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag slugs; results carry all of them (max 5)")),
		mcp.WithString("sort", mcp.Description("relevance, latest or hot (default relevance)")),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 1")),
		mcp.WithNumber("page_size", mcp.Description("Results per page (10-50)")),
	), s.searchArticles)

	s.mcp.AddTool(mcp.NewTool("get_article",
		mcp.WithDescription("Get an indexed article's metadata and outline by slug."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Article slug, e.g. paper-studio")),
	), s.getArticle)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List categories with the number of articles in each."),
	), s.listCategories)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List tags with the number of articles carrying each."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_article_format",
		mcp.WithDescription("Returns the Markdown frontmatter format articles must follow to be indexed."),
	), s.getArticleFormat)

	s.mcp.AddResource(
		mcp.NewResource(articleFormatURI, "Article Format",
			mcp.WithResourceDescription("Frontmatter fields and rules for indexable articles."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readArticleFormatResource,
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

func (s *Server) searchArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := query.Params{
		Q:        req.GetString("q", ""),
		Scope:    req.GetString("scope", ""),
		Category: req.GetString("category", ""),
		Tags:     req.GetString("tags", ""),
		Sort:     req.GetString("sort", ""),
	}
	if page := req.GetInt("page", 0); page > 0 {
		p.Page = fmt.Sprint(page)
	}
	if size := req.GetInt("page_size", 0); size > 0 {
		p.PageSize = fmt.Sprint(size)
	}

	page, err := s.svc.SearchOrDegrade(ctx, query.Plan(p))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page)
}

func (s *Server) getArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Document(ctx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	outline, err := s.svc.Outline(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc.ContentText = ""
	return jsonResult(map[string]any{
		"article": doc,
		"outline": outline,
	})
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	facets, err := s.svc.Categories(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(facets)
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	facets, err := s.svc.Tags(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(facets)
}

func (s *Server) getArticleFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ArticleFormatContract), nil
}

func (s *Server) readArticleFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      articleFormatURI,
			MIMEType: "text/markdown",
			Text:     ArticleFormatContract,
		},
	}, nil
}
