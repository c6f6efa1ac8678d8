package optimizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/fetch"
	"resume-optimizer/internal/llm"
	"resume-optimizer/resume/render"
)

type stubFetcher struct {
	res   fetch.Result
	err   error
	calls int
}

func (s *stubFetcher) Page(ctx context.Context, rawURL string) (fetch.Result, error) {
	s.calls++
	return s.res, s.err
}

func newTestRouter(client llm.Client, f fetch.PageFetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := &Service{LLM: client, Settings: llm.DefaultSettings()}
	NewHandler(svc, f, 0).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartBody(t *testing.T, filename string, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("resume", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(file)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestOptimizeEndpoint(t *testing.T) {
	silenceLogs(t)

	client := &fakeLLM{out: `{"optimized_resume":"Jane\n- Go","changelog":"c","suggestions":"s"}`}
	body, ctype := multipartBody(t, "cv.txt", []byte("Jane"), map[string]string{"job_description": "Go dev"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", body)
	req.Header.Set("Content-Type", ctype)
	resp := httptest.NewRecorder()
	newTestRouter(client, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", resp.Code, resp.Body.String())
	}
	var payload struct {
		OptimizedResume string `json:"optimizedResume"`
		Changelog       string `json:"changelog"`
		Suggestions     string `json:"suggestions"`
		ParseOK         bool   `json:"parseOk"`
		Downloads       struct {
			DOCX string `json:"docx"`
			TXT  string `json:"txt"`
		} `json:"downloads"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.OptimizedResume != "Jane\n- Go" || payload.Changelog != "c" || payload.Suggestions != "s" || !payload.ParseOK {
		t.Fatalf("unexpected payload %#v", payload)
	}
	txt, err := base64.StdEncoding.DecodeString(payload.Downloads.TXT)
	if err != nil || string(txt) != "Jane\n- Go" {
		t.Fatalf("txt download = %q, %v", txt, err)
	}
	docx, err := base64.StdEncoding.DecodeString(payload.Downloads.DOCX)
	if err != nil || !bytes.HasPrefix(docx, []byte("PK")) {
		t.Fatalf("docx download is not a zip: %v", err)
	}
}

func TestOptimizeEndpointErrors(t *testing.T) {
	silenceLogs(t)

	tests := []struct {
		name       string
		filename   string
		fields     map[string]string
		client     *fakeLLM
		fetcher    *stubFetcher
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "missing resume",
			fields:     map[string]string{"job_description": "Go"},
			client:     &fakeLLM{},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrorCodeValidation,
			wantMsg:    MessageMissingResume,
		},
		{
			name:       "missing job description",
			filename:   "cv.txt",
			client:     &fakeLLM{},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrorCodeValidation,
			wantMsg:    MessageMissingJobDescription,
		},
		{
			name:       "model failure",
			filename:   "cv.txt",
			fields:     map[string]string{"job_description": "Go"},
			client:     &fakeLLM{err: errors.New("rate limited")},
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrorCodeModel,
			wantMsg:    "Model API error: rate limited",
		},
		{
			name:       "job url fetch failure",
			filename:   "cv.txt",
			fields:     map[string]string{"job_url": "https://jobs.example/1"},
			client:     &fakeLLM{},
			fetcher:    &stubFetcher{err: &fetch.Error{Message: "HTTP status 404 Not Found"}},
			wantStatus: http.StatusBadGateway,
			wantCode:   "fetch_failed",
			wantMsg:    "Error fetching URL: HTTP status 404 Not Found",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := multipartBody(t, tt.filename, []byte("Jane"), tt.fields)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", body)
			req.Header.Set("Content-Type", ctype)
			resp := httptest.NewRecorder()

			var f fetch.PageFetcher
			if tt.fetcher != nil {
				f = tt.fetcher
			}
			newTestRouter(tt.client, f).ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", resp.Code, tt.wantStatus, resp.Body.String())
			}
			var payload errorPayload
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if payload.Error.Code != tt.wantCode || payload.Error.Message != tt.wantMsg {
				t.Fatalf("error = %#v", payload.Error)
			}
			if tt.wantStatus != http.StatusBadGateway || tt.wantCode != ErrorCodeModel {
				if tt.client.calls != 0 {
					t.Fatalf("model should not be called, got %d calls", tt.client.calls)
				}
			}
		})
	}
}

func TestOptimizeEndpointUsesFetchedJobText(t *testing.T) {
	silenceLogs(t)

	client := &fakeLLM{out: `{"optimized_resume":"R","changelog":"C","suggestions":"S"}`}
	f := &stubFetcher{res: fetch.Result{Text: "Fetched posting"}}
	body, ctype := multipartBody(t, "cv.txt", []byte("Jane"), map[string]string{"job_url": "https://jobs.example/1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", body)
	req.Header.Set("Content-Type", ctype)
	resp := httptest.NewRecorder()
	newTestRouter(client, f).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", resp.Code, resp.Body.String())
	}
	if f.calls != 1 {
		t.Fatalf("expected one fetch, got %d", f.calls)
	}
	if !strings.Contains(client.prompt.User, "Job Description:\nFetched posting") {
		t.Fatalf("fetched text not used: %q", client.prompt.User)
	}
}

func TestOptimizeEndpointPrefersTypedJobText(t *testing.T) {
	silenceLogs(t)

	client := &fakeLLM{out: `{}`}
	f := &stubFetcher{res: fetch.Result{Text: "Fetched posting"}}
	body, ctype := multipartBody(t, "cv.txt", []byte("Jane"), map[string]string{
		"job_description": "Typed posting",
		"job_url":         "https://jobs.example/1",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", body)
	req.Header.Set("Content-Type", ctype)
	resp := httptest.NewRecorder()
	newTestRouter(client, f).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", resp.Code, resp.Body.String())
	}
	if f.calls != 0 {
		t.Fatalf("fetch should be skipped when text is present")
	}
}

func TestDownloadEndpoint(t *testing.T) {
	silenceLogs(t)

	tests := []struct {
		name        string
		format      string
		contentType string
		body        string
		wantStatus  int
		wantCT      string
		wantFile    string
	}{
		{
			name:        "txt from form",
			format:      "txt",
			contentType: "application/x-www-form-urlencoded",
			body:        "text=Jane+Doe%0A-+Go",
			wantStatus:  http.StatusOK,
			wantCT:      render.TextContentType,
			wantFile:    render.TextFileName,
		},
		{
			name:        "docx from json",
			format:      "docx",
			contentType: "application/json",
			body:        `{"text":"Jane Doe\n- Go"}`,
			wantStatus:  http.StatusOK,
			wantCT:      render.DocxContentType,
			wantFile:    render.DocxFileName,
		},
		{
			name:        "unknown format",
			format:      "pdf",
			contentType: "application/json",
			body:        `{"text":"x"}`,
			wantStatus:  http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/download/"+tt.format, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			resp := httptest.NewRecorder()
			newTestRouter(&fakeLLM{}, nil).ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if got := resp.Header().Get("Content-Type"); got != tt.wantCT {
				t.Fatalf("Content-Type = %q", got)
			}
			if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, tt.wantFile) {
				t.Fatalf("Content-Disposition = %q", got)
			}
			if tt.format == "txt" && resp.Body.String() != "Jane Doe\n- Go" {
				t.Fatalf("body = %q", resp.Body.String())
			}
		})
	}
}

func TestUploadNameStripsClientPath(t *testing.T) {
	tests := map[string]string{
		`C:\Users\jane\Resume.PDF`: "Resume.PDF",
		"../cv.docx":              "cv.docx",
		"":                        "resume",
	}
	for in, want := range tests {
		if got := uploadName(in); got != want {
			t.Fatalf("uploadName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadUploadEnforcesLimit(t *testing.T) {
	const limit = 16
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "under limit", size: limit - 1},
		{name: "at limit", size: limit},
		{name: "one byte over", size: limit + 1, wantErr: true},
		{name: "double limit", size: 2 * limit, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := multipartBody(t, "cv.txt", bytes.Repeat([]byte("x"), tt.size), nil)
			_, params, _ := strings.Cut(ctype, "boundary=")
			form, err := multipart.NewReader(body, params).ReadForm(1 << 20)
			if err != nil {
				t.Fatalf("read form: %v", err)
			}
			defer form.RemoveAll()

			data, err := readUpload(form.File["resume"][0], limit)
			if tt.wantErr {
				if !IsTooLarge(err) {
					t.Fatalf("expected too-large error, got %v (%d bytes)", err, len(data))
				}
				if UserMessage(err) != MessageFileTooLarge {
					t.Fatalf("UserMessage = %q", UserMessage(err))
				}
				return
			}
			if err != nil || len(data) != tt.size {
				t.Fatalf("readUpload = %d bytes, %v", len(data), err)
			}
		})
	}
}
