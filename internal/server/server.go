package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskmanager/internal/models"
	"taskmanager/internal/storage"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-Id"

// Options configures the HTTP server.
type Options struct {
	StaticDir   string
	CORSOrigins []string
	// Development adds the panic value to 500 responses.
	Development bool
}

// Server provides HTTP handlers for the task manager backend.
type Server struct {
	engine *gin.Engine
	store  storage.Store
	logger *slog.Logger
	opts   Options
	schema *taskSchemas
	index  string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store storage.Store, logger *slog.Logger, opts Options) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	schemas, err := compileTaskSchemas()
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	srv := &Server{
		engine: router,
		store:  store,
		logger: logger,
		opts:   opts,
		schema: schemas,
	}

	router.Use(srv.requestLogger())
	router.Use(gin.CustomRecovery(srv.recover))
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  opts.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Length", RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	srv.registerRoutes()
	return srv, nil
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
		}

		api.GET("/projects", s.handleListProjects)
		api.POST("/projects", s.handleCreateProject)

		api.GET("/labels", s.handleListLabels)
		api.POST("/labels", s.handleCreateLabel)
	}

	s.engine.NoRoute(s.handleNoRoute)
	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requestLogger writes one record per request and tags it with an id.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		c.Next()

		s.logger.Info("request",
			slog.String("id", id),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) recover(c *gin.Context, rec any) {
	s.logger.Error("panic recovered", slog.String("path", c.Request.URL.Path), slog.Any("panic", rec))
	body := gin.H{"message": "Something went wrong!"}
	if s.opts.Development {
		body["error"] = fmt.Sprint(rec)
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicate),
		errors.Is(err, models.ErrTitleRequired),
		errors.Is(err, models.ErrInvalidPriority),
		errors.Is(err, models.ErrInvalidRecurringType),
		errors.Is(err, models.ErrUnknownProject),
		errors.Is(err, models.ErrUnknownLabel),
		errors.Is(err, models.ErrInvalidDate),
		errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(c.Request.Context(), level, "request failed",
		slog.String("path", c.FullPath()),
		slog.String("request_id", c.GetString("request_id")),
		slog.String("error", err.Error()))
	c.AbortWithStatusJSON(status, gin.H{"message": err.Error()})
}

// respondSuccess writes payload, or only the status when there is none.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
