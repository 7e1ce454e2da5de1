package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/parsa-hm/lectern/internal/tools"
)

// Assistant is the query surface the handlers need. Satisfied by
// *rag.System.
type Assistant interface {
	Answer(ctx context.Context, query, sessionID string) (string, []tools.Source, error)
	CourseStats() (int, []string)
}

// QueryHandler exposes the assistant endpoints.
type QueryHandler struct {
	Assistant Assistant
}

// Register mounts the handler routes on a group.
func (h *QueryHandler) Register(g *echo.Group) {
	g.POST("/query", h.query)
	g.GET("/courses", h.courses)
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type queryResponse struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

func (h *QueryHandler) query(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, sources, err := h.Assistant.Answer(c.Request().Context(), req.Query, sessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if sources == nil {
		sources = []tools.Source{}
	}
	return c.JSON(http.StatusOK, queryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}

type coursesResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

func (h *QueryHandler) courses(c echo.Context) error {
	total, titles := h.Assistant.CourseStats()
	if titles == nil {
		titles = []string{}
	}
	return c.JSON(http.StatusOK, coursesResponse{
		TotalCourses: total,
		CourseTitles: titles,
	})
}
