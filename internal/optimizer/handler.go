package optimizer

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/extract"
	"resume-optimizer/internal/fetch"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
	"resume-optimizer/internal/shared/util"
	"resume-optimizer/resume/render"
)

const defaultMaxUploadSize = 5 << 20 // 5MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	Fetcher        fetch.PageFetcher
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, fetcher fetch.PageFetcher, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadSize
	}
	return &Handler{Svc: svc, Fetcher: fetcher, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches optimize and download routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/optimize", h.optimize)
	rg.POST("/download/:format", h.download)
}

type downloadsResponse struct {
	DOCX []byte `json:"docx"`
	TXT  []byte `json:"txt"`
}

type optimizeResponse struct {
	OptimizedResume string            `json:"optimizedResume"`
	Changelog       string            `json:"changelog"`
	Suggestions     string            `json:"suggestions"`
	ParseOK         bool              `json:"parseOk"`
	ParseReason     string            `json:"parseReason,omitempty"`
	Downloads       downloadsResponse `json:"downloads"`
}

func (h *Handler) optimize(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	in, err := ReadForm(c, h.MaxUploadBytes)
	if err != nil {
		if IsTooLarge(err) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "validation_error", MessageFileTooLarge, nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read upload", nil)
		return
	}
	c.Set(middleware.ResumeFormatKey, string(extract.FormatFromFilename(in.ResumeFilename)))

	if strings.TrimSpace(in.JobDescription) == "" {
		if jobURL := strings.TrimSpace(c.PostForm("job_url")); jobURL != "" && h.Fetcher != nil {
			res, err := fetch.Fetch(c.Request.Context(), h.Fetcher, jobURL)
			if err != nil {
				c.Set(middleware.OutcomeKey, metrics.OutcomeFailed)
				respond.Error(c, http.StatusBadGateway, "fetch_failed", fetch.UserMessage(err), nil)
				return
			}
			in.JobDescription = res.Text
		}
	}

	out, err := h.Svc.Optimize(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set(middleware.OutcomeKey, metrics.OutcomeSuccess)
	c.Set(middleware.ParseOKKey, out.ParseOK)
	respond.OK(c, optimizeResponse{
		OptimizedResume: out.Result.OptimizedResume,
		Changelog:       out.Result.Changelog,
		Suggestions:     out.Result.Suggestions,
		ParseOK:         out.ParseOK,
		ParseReason:     out.ParseReason,
		Downloads: downloadsResponse{
			DOCX: out.DOCX,
			TXT:  out.Text,
		},
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var modelErr *ModelError
	switch {
	case IsValidation(err):
		c.Set(middleware.OutcomeKey, metrics.OutcomeValidation)
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, UserMessage(err), nil)
	case errors.As(err, &modelErr):
		c.Set(middleware.OutcomeKey, metrics.OutcomeFailed)
		respond.Error(c, http.StatusBadGateway, ErrorCodeModel, UserMessage(err), nil)
	default:
		c.Set(middleware.OutcomeKey, metrics.OutcomeFailed)
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, UserMessage(err), err.Error())
	}
}

type downloadRequest struct {
	Text string `json:"text" form:"text"`
}

func (h *Handler) download(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	var req downloadRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	switch strings.ToLower(c.Param("format")) {
	case "docx":
		data, err := render.DOCX(req.Text)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "failed to render document", err.Error())
			return
		}
		respond.Attachment(c, render.DocxFileName, render.DocxContentType, data)
	case "txt":
		respond.Attachment(c, render.TextFileName, render.TextContentType, render.PlainText(req.Text))
	default:
		respond.Error(c, http.StatusNotFound, "not_found", "format must be docx or txt", nil)
	}
}

// ReadForm reads the resume upload and job description from a multipart
// form. A missing file yields an Input without resume data.
func ReadForm(c *gin.Context, maxBytes int64) (Input, error) {
	var in Input

	fileHeader, err := c.FormFile("resume")
	switch {
	case err == nil:
		data, err := readUpload(fileHeader, maxBytes)
		if err != nil {
			return in, err
		}
		in.ResumeFilename = uploadName(fileHeader.Filename)
		in.ResumeData = data
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return in, err
	}

	in.JobDescription = c.PostForm("job_description")
	return in, nil
}

// uploadName strips client path components from the uploaded file name.
func uploadName(name string) string {
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return "resume"
	}
	return clean
}

// readUpload returns the file contents, or *http.MaxBytesError when the file
// holds more than maxBytes. A non-positive maxBytes disables the check.
func readUpload(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if maxBytes <= 0 {
		return io.ReadAll(file)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, &http.MaxBytesError{Limit: maxBytes}
	}
	return data, nil
}
