// Package web serves the single-page form for interactive use.
package web

import (
	"embed"
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ginrender "github.com/gin-gonic/gin/render"

	"resume-optimizer/internal/extract"
	"resume-optimizer/internal/fetch"
	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/util"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	actionFetch    = "fetch"
	actionOptimize = "optimize"

	fetchSuccessMessage    = "Fetched job description successfully."
	optimizeSuccessMessage = "Resume optimization complete!"
)

// Page is the data rendered into the form. Every submission re-renders it
// from the posted values; nothing is kept between requests.
type Page struct {
	JobURL         string
	JobDescription string
	ResumeName     string
	ResumeData     string

	Info    string
	Warning string
	Error   string
	Success string

	Result      *llm.OptimizationResult
	ParseOK     bool
	ParseReason string
}

// Handler renders the page and runs the fetch and optimize actions.
type Handler struct {
	Svc            *optimizer.Service
	Fetcher        fetch.PageFetcher
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *optimizer.Service, fetcher fetch.PageFetcher, maxUploadBytes int64) *Handler {
	return &Handler{Svc: svc, Fetcher: fetcher, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches the page routes to the router.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.index)
	r.POST("/", h.submit)
}

func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, Page{})
}

func (h *Handler) submit(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		// Base64 carry-over inflates the resume by a third.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes*2)
	}

	in, err := optimizer.ReadForm(c, h.MaxUploadBytes)
	if err != nil {
		if optimizer.IsTooLarge(err) {
			c.Set(middleware.OutcomeKey, metrics.OutcomeValidation)
			h.render(c, http.StatusRequestEntityTooLarge, Page{
				JobURL: strings.TrimSpace(c.PostForm("job_url")),
				Error:  optimizer.MessageFileTooLarge,
			})
			return
		}
		h.render(c, http.StatusBadRequest, Page{Error: "Could not read the uploaded file."})
		return
	}

	page := Page{
		JobURL:         strings.TrimSpace(c.PostForm("job_url")),
		JobDescription: in.JobDescription,
	}
	if in.ResumeFilename == "" {
		in.ResumeFilename, in.ResumeData = carriedResume(c)
	}
	if in.ResumeFilename != "" {
		page.ResumeName = in.ResumeFilename
		page.ResumeData = base64.StdEncoding.EncodeToString(in.ResumeData)
	}

	if c.PostForm("action") == actionFetch {
		h.fetchJob(c, &page)
		return
	}
	h.optimize(c, &page, in)
}

// fetchJob replaces the job description on success and leaves it untouched
// on failure.
func (h *Handler) fetchJob(c *gin.Context, page *Page) {
	if page.JobURL == "" || h.Fetcher == nil {
		h.render(c, http.StatusOK, *page)
		return
	}
	res, err := fetch.Fetch(c.Request.Context(), h.Fetcher, page.JobURL)
	if err != nil {
		c.Set(middleware.OutcomeKey, metrics.OutcomeFailed)
		page.Error = fetch.UserMessage(err)
		h.render(c, http.StatusOK, *page)
		return
	}
	c.Set(middleware.OutcomeKey, metrics.OutcomeSuccess)
	page.JobDescription = res.Text
	page.Success = fetchSuccessMessage
	h.render(c, http.StatusOK, *page)
}

func (h *Handler) optimize(c *gin.Context, page *Page, in optimizer.Input) {
	in.JobDescription = page.JobDescription
	if in.ResumeFilename != "" {
		c.Set(middleware.ResumeFormatKey, string(extract.FormatFromFilename(in.ResumeFilename)))
	}

	out, err := h.Svc.Optimize(c.Request.Context(), in)
	var modelErr *optimizer.ModelError
	switch {
	case errors.Is(err, optimizer.ErrMissingResume):
		c.Set(middleware.OutcomeKey, metrics.OutcomeValidation)
		page.Info = optimizer.UserMessage(err)
	case errors.Is(err, optimizer.ErrMissingJobDescription):
		c.Set(middleware.OutcomeKey, metrics.OutcomeValidation)
		page.Warning = optimizer.UserMessage(err)
	case errors.As(err, &modelErr):
		c.Set(middleware.OutcomeKey, metrics.OutcomeFailed)
		page.Error = optimizer.UserMessage(err)
	case err != nil:
		c.Set(middleware.OutcomeKey, metrics.OutcomeFailed)
		page.Error = optimizer.UserMessage(err)
	default:
		c.Set(middleware.OutcomeKey, metrics.OutcomeSuccess)
		c.Set(middleware.ParseOKKey, out.ParseOK)
		result := out.Result
		page.Result = &result
		page.ParseOK = out.ParseOK
		page.ParseReason = out.ParseReason
		page.Success = optimizeSuccessMessage
	}
	h.render(c, http.StatusOK, *page)
}

// carriedResume reads a resume kept in hidden fields by an earlier render.
func carriedResume(c *gin.Context) (string, []byte) {
	name, err := util.SanitizeFileName(c.PostForm("resume_name"))
	if err != nil {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(c.PostForm("resume_data"))
	if err != nil {
		return "", nil
	}
	return name, data
}

func (h *Handler) render(c *gin.Context, status int, page Page) {
	c.Render(status, ginrender.HTML{
		Template: pageTemplate,
		Name:     "index.html",
		Data:     page,
	})
}
