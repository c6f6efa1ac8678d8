package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/fetch"
	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/shared/telemetry"
)

type fakeLLM struct {
	out    string
	err    error
	prompt llm.Prompt
}

func (f *fakeLLM) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

type stubFetcher struct {
	res fetch.Result
	err error
}

func (s stubFetcher) Page(ctx context.Context, rawURL string) (fetch.Result, error) {
	return s.res, s.err
}

func newTestRouter(client llm.Client, f fetch.PageFetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := &optimizer.Service{LLM: client, Settings: llm.DefaultSettings()}
	NewHandler(svc, f, 1<<20).RegisterRoutes(r)
	return r
}

func postForm(t *testing.T, r http.Handler, filename string, file []byte, fields map[string]string) *httptest.ResponseRecorder {
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
		_ = w.WriteField(k, v)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func silenceLogs(t *testing.T) {
	t.Helper()
	restore := telemetry.SetOutput(io.Discard)
	t.Cleanup(restore)
}

func TestIndexRendersEmptyForm(t *testing.T) {
	r := newTestRouter(&fakeLLM{}, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{"Resume Optimizer", `name="resume"`, `name="job_description"`, `value="fetch"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if strings.Contains(body, "Optimized Resume (ATS-Friendly)") {
		t.Fatalf("empty page should not show results")
	}
}

func TestSubmitStates(t *testing.T) {
	silenceLogs(t)

	tests := []struct {
		name     string
		filename string
		fields   map[string]string
		client   *fakeLLM
		fetcher  fetch.PageFetcher
		want     []string
		notWant  []string
	}{
		{
			name:   "no resume shows info",
			fields: map[string]string{"action": "optimize", "job_description": "Go"},
			client: &fakeLLM{},
			want:   []string{`class="info">Please upload a resume to continue.`},
		},
		{
			name:     "blank job shows warning",
			filename: "cv.txt",
			fields:   map[string]string{"action": "optimize", "job_description": "  "},
			client:   &fakeLLM{},
			want:     []string{`class="warning">Please provide a job description or a valid URL.`},
		},
		{
			name:     "model error shown",
			filename: "cv.txt",
			fields:   map[string]string{"action": "optimize", "job_description": "Go"},
			client:   &fakeLLM{err: context.DeadlineExceeded},
			want:     []string{"Model API error: context deadline exceeded"},
			notWant:  []string{"Download .docx"},
		},
		{
			name:     "success shows results and downloads",
			filename: "cv.txt",
			fields:   map[string]string{"action": "optimize", "job_description": "Go"},
			client:   &fakeLLM{out: `{"optimized_resume":"Jane <Doe>","changelog":"Added Go","suggestions":"Learn k8s"}`},
			want:     []string{"Resume optimization complete!", "Jane &lt;Doe&gt;", "Added Go", "Learn k8s", "Download .docx", "Download .txt"},
			notWant:  []string{"was not valid JSON"},
		},
		{
			name:     "parse fallback warns",
			filename: "cv.txt",
			fields:   map[string]string{"action": "optimize", "job_description": "Go"},
			client:   &fakeLLM{out: "no json here"},
			want:     []string{"was not valid JSON", "no json here", llm.FallbackChangelog},
		},
		{
			name:     "fetch replaces job text",
			filename: "cv.txt",
			fields:   map[string]string{"action": "fetch", "job_url": "https://jobs.example/1", "job_description": "old text"},
			client:   &fakeLLM{},
			fetcher:  stubFetcher{res: fetch.Result{Text: "Fetched posting"}},
			want:     []string{"Fetched job description successfully.", ">Fetched posting</textarea>", `name="resume_name" value="cv.txt"`},
			notWant:  []string{"old text"},
		},
		{
			name:    "fetch failure keeps job text",
			fields:  map[string]string{"action": "fetch", "job_url": "https://jobs.example/404", "job_description": "old text"},
			client:  &fakeLLM{},
			fetcher: stubFetcher{err: &fetch.Error{Message: "HTTP status 404 Not Found"}},
			want:    []string{"Error fetching URL: HTTP status 404 Not Found", ">old text</textarea>"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.client, tt.fetcher)
			resp := postForm(t, r, tt.filename, []byte("Jane Doe"), tt.fields)
			if resp.Code != http.StatusOK {
				t.Fatalf("status = %d", resp.Code)
			}
			body := resp.Body.String()
			for _, want := range tt.want {
				if !strings.Contains(body, want) {
					t.Fatalf("page missing %q\n%s", want, body)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(body, notWant) {
					t.Fatalf("page should not contain %q", notWant)
				}
			}
		})
	}
}

func TestSubmitUsesCarriedResume(t *testing.T) {
	silenceLogs(t)

	client := &fakeLLM{out: `{"optimized_resume":"R","changelog":"C","suggestions":"S"}`}
	r := newTestRouter(client, nil)
	resp := postForm(t, r, "", nil, map[string]string{
		"action":          "optimize",
		"job_description": "Go",
		"resume_name":     "cv.txt",
		"resume_data":     base64.StdEncoding.EncodeToString([]byte("Carried resume")),
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if !strings.Contains(client.prompt.User, "Candidate Resume:\nCarried resume") {
		t.Fatalf("carried resume not used: %q", client.prompt.User)
	}
}

func TestSubmitRejectsOversizedResume(t *testing.T) {
	silenceLogs(t)

	client := &fakeLLM{out: `{"optimized_resume":"R","changelog":"C","suggestions":"S"}`}
	r := newTestRouter(client, nil)
	file := append(bytes.Repeat([]byte("a"), 1<<20), []byte("TAIL_MARKER")...)
	resp := postForm(t, r, "resume.txt", file, map[string]string{
		"action":          "optimize",
		"job_description": "Go",
	})

	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, optimizer.MessageFileTooLarge) {
		t.Fatalf("page missing too-large message\n%s", body)
	}
	if strings.Contains(body, "Resume optimization complete!") {
		t.Fatal("oversized upload must not report success")
	}
	if client.prompt.User != "" {
		t.Fatal("model should not be called for an oversized upload")
	}
}
