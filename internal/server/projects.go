package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) bindName(c *gin.Context) (string, bool) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("%w: name is required", errInvalidBody))
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("%w: name is required", errInvalidBody))
		return "", false
	}
	return name, true
}

// handleListProjects returns all available projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, projects)
}

// handleCreateProject registers a new project name.
func (s *Server) handleCreateProject(c *gin.Context) {
	name, ok := s.bindName(c)
	if !ok {
		return
	}
	project, err := s.store.CreateProject(c.Request.Context(), name)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusCreated, project)
}

// handleListLabels returns all available labels.
func (s *Server) handleListLabels(c *gin.Context) {
	labels, err := s.store.ListLabels(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, labels)
}

// handleCreateLabel registers a new label name.
func (s *Server) handleCreateLabel(c *gin.Context) {
	name, ok := s.bindName(c)
	if !ok {
		return
	}
	label, err := s.store.CreateLabel(c.Request.Context(), name)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusCreated, label)
}
