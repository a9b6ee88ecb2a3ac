package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnquangdev/meeting-functions/pkg/config"
)

const functionsPrefix = "/functions/v1"

// Function names, also used as the metrics label
const (
	fnStartBot           = "start-bot"
	fnFetchTranscript    = "fetch-transcript"
	fnSummarize          = "summarize-transcription"
	fnGenerateEmbeddings = "generate-embeddings"
	fnGetEmbedding       = "get-embedding"

	// fnUnmatched labels requests that did not match a function route
	fnUnmatched = "unmatched"
)

var functionNames = map[string]struct{}{
	fnStartBot:           {},
	fnFetchTranscript:    {},
	fnSummarize:          {},
	fnGenerateEmbeddings: {},
	fnGetEmbedding:       {},
}

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	botHandler       *Bot
	summaryHandler   *Summary
	embeddingHandler *Embedding
	authMiddleware   echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers. authMiddleware may be nil.
func NewRouter(cfg *config.Config, botHandler *Bot, summaryHandler *Summary, embeddingHandler *Embedding, authMiddleware echo.MiddlewareFunc) *Router {
	return &Router{
		cfg:              cfg,
		botHandler:       botHandler,
		summaryHandler:   summaryHandler,
		embeddingHandler: embeddingHandler,
		authMiddleware:   authMiddleware,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	functions := e.Group(functionsPrefix)

	rt.setupBotRoutes(functions)
	rt.setupSummaryRoutes(functions)
	rt.setupEmbeddingRoutes(functions)
}

// setupBotRoutes configures the meeting bot functions
func (rt *Router) setupBotRoutes(g *echo.Group) {
	bot := rt.withAuth(rt.requireConfig(rt.cfg.RequireBotGateway, rt.cfg.RequireStore))

	g.POST("/"+fnStartBot, rt.botHandler.StartBot, bot...)
	g.GET("/"+fnStartBot, rt.botHandler.StartBotUsage)
	g.POST("/"+fnFetchTranscript, rt.botHandler.FetchTranscript, bot...)
}

// setupSummaryRoutes configures the summarize-transcription function
func (rt *Router) setupSummaryRoutes(g *echo.Group) {
	mw := rt.withAuth(rt.requireConfig(rt.cfg.RequireAI, rt.cfg.RequireStore))

	g.POST("/"+fnSummarize, rt.summaryHandler.Summarize, mw...)
}

// setupEmbeddingRoutes configures the embedding functions. Preflight requests
// are answered before auth and config checks.
func (rt *Router) setupEmbeddingRoutes(g *echo.Group) {
	cors := rt.embeddingHandler.CORS

	g.OPTIONS("/"+fnGenerateEmbeddings, rt.embeddingHandler.Preflight, cors)
	g.OPTIONS("/"+fnGetEmbedding, rt.embeddingHandler.Preflight, cors)

	generate := append([]echo.MiddlewareFunc{cors}, rt.withAuth(rt.requireConfig(rt.cfg.RequireAI, rt.cfg.RequireStore))...)
	g.POST("/"+fnGenerateEmbeddings, rt.embeddingHandler.GenerateEmbeddings, generate...)

	query := append([]echo.MiddlewareFunc{cors}, rt.withAuth(rt.requireConfig(rt.cfg.RequireAI))...)
	g.POST("/"+fnGetEmbedding, rt.embeddingHandler.GetEmbedding, query...)
}

// withAuth prepends the bearer check when auth is enabled
func (rt *Router) withAuth(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if rt.authMiddleware == nil {
		return mw
	}
	return append([]echo.MiddlewareFunc{rt.authMiddleware}, mw...)
}

// requireConfig fails the request with a configuration error when a setting the
// function depends on is missing. Checks run per request so the service starts
// with partial configuration.
func (rt *Router) requireConfig(checks ...func() error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, check := range checks {
				if err := check(); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}

// IsEmbeddingRoute reports whether the request targets a function that sets its
// own CORS headers
func IsEmbeddingRoute(c echo.Context) bool {
	p := c.Path()
	return strings.HasSuffix(p, "/"+fnGenerateEmbeddings) || strings.HasSuffix(p, "/"+fnGetEmbedding)
}
