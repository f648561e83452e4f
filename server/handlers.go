package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/richinex/omnireport/export"
	"github.com/richinex/omnireport/llm"
	"github.com/richinex/omnireport/model"
	"github.com/richinex/omnireport/storage"
)

type startRequest struct {
	Subject string `json:"subject"`
	// Model overrides the stored model for this run only.
	Model string `json:"model,omitempty"`
}

type modelsResponse struct {
	Default string          `json:"default"`
	Models  []llm.ModelInfo `json:"models"`
}

func (s *Server) startReport(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	creds, err := s.store.LoadCredentials(c.Request().Context())
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	creds = storage.Merge(creds, model.Credentials{Model: req.Model})
	if creds.Model == "" {
		creds.Model = s.opts.DefaultModel
	}

	state, err := s.runner.Start(s.runCtx, req.Subject, creds)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, state)
}

func (s *Server) currentReport(c echo.Context) error {
	return c.JSON(http.StatusOK, s.runner.Snapshot())
}

func (s *Server) resetReport(c echo.Context) error {
	if err := s.runner.Reset(); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, s.runner.Snapshot())
}

func (s *Server) exportReport(c echo.Context) error {
	f, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	state := s.runner.Snapshot()
	if !state.Status.Terminal() {
		return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("report is %s, not completed", state.Status))
	}
	if state.Status == model.StatusFailed {
		return echo.NewHTTPError(http.StatusConflict, "report failed, reset and start a new run")
	}

	doc, err := export.Render(c.Request().Context(), state, f, s.opts.Export)
	if err != nil {
		return httpError(err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", export.FileName(state.Title, f)))
	return c.Blob(http.StatusOK, f.ContentType(), doc)
}

func (s *Server) getSettings(c echo.Context) error {
	creds, err := s.store.LoadCredentials(c.Request().Context())
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	return c.JSON(http.StatusOK, creds.Masked())
}

// putSettings applies the non-empty fields of the body to the stored
// credentials.
func (s *Server) putSettings(c echo.Context) error {
	var update model.Credentials
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	current, err := s.store.LoadCredentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	merged := storage.Merge(current, update)
	if err := s.store.SaveCredentials(ctx, merged); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return c.JSON(http.StatusOK, merged.Masked())
}

func (s *Server) listModels(c echo.Context) error {
	return c.JSON(http.StatusOK, modelsResponse{Default: s.opts.DefaultModel, Models: s.opts.Models})
}
