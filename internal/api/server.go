// Package api exposes recorded simulation history over HTTP, read-only:
// the latest run, per-node and per-container history, and a health check.
// The data center summary tuple is not served.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/fabricsim/fabricsim/internal/store"
)

// Server serves recorded run history from a *store.Store.
type Server struct {
	router *gin.Engine
	store  *store.Store
}

// NewServer constructs a Server backed by st.
func NewServer(st *store.Store) *Server {
	router := gin.Default()

	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	cfg.AllowMethods = []string{"GET", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type"}
	router.Use(cors.New(cfg))

	s := &Server{router: router, store: st}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")

	v1.GET("/runs/latest", s.getLatestRun)
	v1.GET("/runs/:id/nodes/:name", s.getNodeHistory)
	v1.GET("/runs/:id/containers/:name", s.getContainerHistory)
	v1.GET("/health", s.healthCheck)
}

// Run starts the HTTP server listening on addr (e.g. ":8080").
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) getLatestRun(c *gin.Context) {
	run, err := s.store.LatestRun()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) getNodeHistory(c *gin.Context) {
	rows, err := s.store.NodeSnapshots(c.Param("id"), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) getContainerHistory(c *gin.Context) {
	rows, err := s.store.ContainerSnapshots(c.Param("id"), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
