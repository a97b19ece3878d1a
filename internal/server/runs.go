package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/scoutdig/scout/internal/store"
	"github.com/scoutdig/scout/models"
)

type askRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type askResponse struct {
	RunID          string                  `json:"run_id"`
	SessionID      string                  `json:"session_id,omitempty"`
	Answer         string                  `json:"answer"`
	ToolCalls      []models.ToolCallRecord `json:"tool_calls,omitempty"`
	TokensUsed     int64                   `json:"tokens_used"`
	LatencySeconds float64                 `json:"latency_seconds"`
}

func (s *Server) handleAsk(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	ctx := c.Request().Context()

	var history []models.Turn
	sessionID := req.SessionID
	if s.sessions != nil {
		id, err := s.sessions.Ensure(ctx, sessionID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "session store unavailable")
		}
		sessionID = id
		history, err = s.sessions.History(ctx, sessionID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "session store unavailable")
		}
	}

	entry, err := s.runner.Run(ctx, req.Query, history)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, entry.Error)
	}

	if s.sessions != nil && sessionID != "" {
		newTurns := entry.Turns[len(history):]
		if err := s.sessions.Append(ctx, sessionID, newTurns...); err != nil {
			s.logger.Printf("session append failed: %v", err)
		}
	}

	if s.archive != nil {
		if err := s.archive.SaveRun(ctx, entry); err != nil {
			s.logger.Printf("archive save failed: %v", err)
		}
	}

	return c.JSON(http.StatusOK, askResponse{
		RunID:          entry.ID,
		SessionID:      sessionID,
		Answer:         entry.Answer,
		ToolCalls:      entry.ToolCalls,
		TokensUsed:     entry.TokensUsed,
		LatencySeconds: entry.LatencySeconds,
	})
}

func (s *Server) handleListRuns(c echo.Context) error {
	if s.archive == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run archive not configured")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	runs, err := s.archive.ListRuns(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list runs failed")
	}
	if runs == nil {
		runs = []models.RunLog{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetRun(c echo.Context) error {
	if s.archive == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run archive not configured")
	}

	run, err := s.archive.GetRun(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrRunNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "get run failed")
	}
	return c.JSON(http.StatusOK, run)
}
