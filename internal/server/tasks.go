package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/models"
	"taskmanager/internal/query"
)

// handleListTasks returns every task, optionally narrowed by view, q and sort.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}

	opts := query.Options{
		View:   c.Query("view"),
		Search: c.Query("q"),
		Sort:   c.Query("sort"),
	}
	respondSuccess(c, http.StatusOK, query.Apply(tasks, opts, time.Now()))
}

// handleCreateTask validates the body and stores a new task.
func (s *Server) handleCreateTask(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := validateBody(s.schema.create, body); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	var task models.Task
	if err := json.Unmarshal(body, &task); err != nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}
	task.Normalize()
	if err := s.checkReferences(c.Request.Context(), task); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}

	created, err := s.store.CreateTask(c.Request.Context(), task)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusCreated, created)
}

// handleUpdateTask merges a partial or full task body into the stored task.
// id and createdAt in the body are ignored.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := validateBody(s.schema.update, body); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	var patch models.TaskPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", errInvalidBody, err))
		return
	}

	if patch.Project != nil || patch.Labels != nil {
		current, err := s.store.GetTask(ctx, id)
		if err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
		if err := current.Apply(patch); err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
		if err := s.checkReferences(ctx, current); err != nil {
			s.respondError(c, statusFor(err), err)
			return
		}
	}

	updated, err := s.store.UpdateTask(ctx, id, patch)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, updated)
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.store.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func (s *Server) checkReferences(ctx context.Context, t models.Task) error {
	if t.Project == "" && len(t.Labels) == 0 {
		return nil
	}
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return err
	}
	labels, err := s.store.ListLabels(ctx)
	if err != nil {
		return err
	}
	return t.CheckReferences(projects, labels)
}
