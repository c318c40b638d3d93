package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/recipesearch/internal/loader"
	"github.com/dshills/recipesearch/internal/searcher"
	"github.com/dshills/recipesearch/internal/storage"
	"github.com/dshills/recipesearch/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "recipesearch"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	searcher *searcher.Searcher
	loader   *loader.Loader
	defaults types.ConditionParams
	logger   *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLoader enables the load_recipes tool.
func WithLoader(l *loader.Loader) Option {
	return func(s *Server) { s.loader = l }
}

// WithDefaults sets the condition values used for fields a tool call omits.
func WithDefaults(p types.ConditionParams) Option {
	return func(s *Server) { s.defaults = p }
}

// WithLogger sets the logger. It must not write to stdout.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new MCP server instance over store and srch.
func NewServer(store storage.Storage, srch *searcher.Searcher, opts ...Option) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		searcher: srch,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// Serve runs the MCP protocol on stdio until ctx is done or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio", zap.String("version", ServerVersion))
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchRecipesTool(), s.handleSearchRecipes)
	s.mcp.AddTool(compareModesTool(), s.handleCompareModes)
	s.mcp.AddTool(analyzeQueryTool(), s.handleAnalyzeQuery)
	s.mcp.AddTool(suggestKeywordsTool(), s.handleSuggestKeywords)
	s.mcp.AddTool(findSimilarTool(), s.handleFindSimilar)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)

	if s.loader != nil {
		s.mcp.AddTool(loadRecipesTool(), s.handleLoadRecipes)
	}
}
