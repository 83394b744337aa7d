package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sweeney/compare-engine/internal/model"
	"github.com/sweeney/compare-engine/internal/status"
	"github.com/sweeney/compare-engine/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

// validationResponse carries field-scoped validation errors back to the
// editor.
type validationResponse struct {
	Valid  bool               `json:"valid"`
	Errors []model.FieldError `json:"errors,omitempty"`
}

func (s *Server) handleList(c *gin.Context) {
	defs, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if defs == nil {
		defs = []model.ComparisonMemory{}
	}
	c.JSON(http.StatusOK, defs)
}

func (s *Server) handleGet(c *gin.Context) {
	m, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "definition not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) handleCreate(c *gin.Context) {
	var m model.ComparisonMemory
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	saved, err := s.store.Save(c.Request.Context(), m)
	if s.writeError(c, err) {
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (s *Server) handleUpdate(c *gin.Context) {
	var m model.ComparisonMemory
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	id := c.Param("id")
	if _, err := s.store.Get(c.Request.Context(), id); errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "definition not found"})
		return
	}
	m.ID = id
	saved, err := s.store.Save(c.Request.Context(), m)
	if s.writeError(c, err) {
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) handleDelete(c *gin.Context) {
	err := s.store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "definition not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleValidate(c *gin.Context) {
	var m model.ComparisonMemory
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	errs := model.Validate(m)
	c.JSON(http.StatusOK, validationResponse{Valid: len(errs) == 0, Errors: errs})
}

// writeError maps Save failures: validation errors are 422 with the field
// list, anything else is a 500. Returns true when a response was written.
func (s *Server) writeError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var verr *store.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, validationResponse{Valid: false, Errors: verr.Errors})
		return true
	}
	c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	return true
}

type statusResponse struct {
	StartTime     time.Time             `json:"start_time"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	Rules         []status.RuleStatus   `json:"rules"`
	RecentCommits []status.CommitRecord `json:"recent_commits,omitempty"`
}

func (s *Server) handleStatus(c *gin.Context) {
	now := time.Now()
	c.JSON(http.StatusOK, statusResponse{
		StartTime:     s.tracker.StartTime(),
		UptimeSeconds: int64(now.Sub(s.tracker.StartTime()).Seconds()),
		Rules:         s.tracker.Snapshot(),
		RecentCommits: s.tracker.RecentCommits(),
	})
}

func (s *Server) handleStatusOne(c *gin.Context) {
	st, ok := s.tracker.Rule(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no runtime status for rule"})
		return
	}
	c.JSON(http.StatusOK, st)
}

type healthResponse struct {
	Status        string `json:"status"`
	PointStore    string `json:"point_store,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.tracker.StartTime()).Seconds()),
	}
	if s.conn != nil {
		resp.PointStore = "disconnected"
		if s.conn.IsConnected() {
			resp.PointStore = "connected"
		}
	}
	c.JSON(http.StatusOK, resp)
}
