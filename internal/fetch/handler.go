package fetch

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
	"resume-optimizer/internal/shared/telemetry"
)

// PageFetcher is satisfied by *Fetcher.
type PageFetcher interface {
	Page(ctx context.Context, rawURL string) (Result, error)
}

// Handler exposes job description fetching over HTTP.
type Handler struct {
	Fetcher PageFetcher
}

// NewHandler constructs a Handler.
func NewHandler(f PageFetcher) *Handler {
	return &Handler{Fetcher: f}
}

// RegisterRoutes attaches fetch routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/job-description/fetch", h.fetch)
}

type fetchRequest struct {
	URL string `json:"url" form:"url"`
}

type fetchResponse struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

func (h *Handler) fetch(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "url is required", nil)
		return
	}

	res, err := Fetch(c.Request.Context(), h.Fetcher, req.URL)
	if err != nil {
		c.Set(middleware.OutcomeKey, metrics.OutcomeFailed)
		respond.Error(c, http.StatusBadGateway, "fetch_failed", UserMessage(err), nil)
		return
	}
	c.Set(middleware.OutcomeKey, metrics.OutcomeSuccess)
	respond.OK(c, fetchResponse{URL: res.URL, Text: res.Text})
}

// Fetch runs f.Page and records the outcome in logs and metrics.
func Fetch(ctx context.Context, f PageFetcher, rawURL string) (Result, error) {
	res, err := f.Page(ctx, rawURL)
	if err != nil {
		metrics.IncFetch(metrics.OutcomeFailed)
		telemetry.Warn("fetch.failed", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"url":        rawURL,
			"error":      err,
		})
		return Result{}, err
	}
	metrics.IncFetch(metrics.OutcomeSuccess)
	telemetry.Info("fetch.completed", map[string]any{
		"request_id": telemetry.RequestID(ctx),
		"url":        rawURL,
		"status":     res.StatusCode,
		"text_runes": len([]rune(res.Text)),
	})
	return res, nil
}
