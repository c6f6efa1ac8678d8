package optimizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resume-optimizer/internal/extract"
	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/internal/shared/util"
	"resume-optimizer/resume/render"
)

// Service runs a single optimization: extract, prompt, call, parse, render.
type Service struct {
	LLM      llm.Client
	Settings llm.Settings
}

// Input is one submission. ResumeFilename decides the extraction format.
type Input struct {
	ResumeFilename string
	ResumeData     []byte
	JobDescription string
}

// Outcome holds everything shown after a successful model call.
type Outcome struct {
	ResumeText  string
	Result      llm.OptimizationResult
	ParseOK     bool
	ParseReason string
	DOCX        []byte
	Text        []byte
}

// Optimize validates in, then runs the pipeline once. A model failure returns
// a *ModelError and no rendered documents.
func (s *Service) Optimize(ctx context.Context, in Input) (*Outcome, error) {
	if err := validate(in); err != nil {
		metrics.IncOptimization(metrics.OutcomeValidation)
		return nil, err
	}

	format := extract.FormatFromFilename(in.ResumeFilename)
	resumeText := extract.ExtractText(ctx, in.ResumeData, format)
	if resumeText == "" {
		telemetry.Warn("optimize.empty_resume_text", map[string]any{
			"filename": in.ResumeFilename,
			"format":   string(format),
			"bytes":    len(in.ResumeData),
		})
	}

	prompt := llm.BuildPrompt(resumeText, in.JobDescription)
	telemetry.Info("optimize.prompt_built", map[string]any{
		"request_id":    telemetry.RequestID(ctx),
		"format":        string(format),
		"resume_chars":  len(resumeText),
		"prompt_chars":  len(prompt.User),
		"prompt_sha256": util.HashText(prompt.System + "\n" + prompt.User),
	})

	start := time.Now()
	raw, err := llm.Call(ctx, s.LLM, prompt)
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveModelCall(s.Settings.Provider, metrics.OutcomeFailed, elapsed)
		metrics.IncOptimization(metrics.OutcomeFailed)
		telemetry.Error("optimize.model_failed", map[string]any{
			"request_id":  telemetry.RequestID(ctx),
			"provider":    s.Settings.Provider,
			"model":       s.Settings.Model,
			"duration_ms": elapsed.Milliseconds(),
			"error":       err,
		})
		return nil, &ModelError{Err: err}
	}
	metrics.ObserveModelCall(s.Settings.Provider, metrics.OutcomeSuccess, elapsed)

	parsed := llm.ParseOutput(raw)
	if !parsed.OK {
		metrics.IncParseFallback()
		telemetry.Warn("optimize.parse_fallback", map[string]any{
			"request_id": telemetry.RequestID(ctx),
			"reason":     parsed.Reason,
			"output_len": len(raw),
		})
	} else if !parsed.SchemaValid {
		telemetry.Warn("optimize.schema_mismatch", map[string]any{
			"keys": len(parsed.Fields),
		})
	}
	result := parsed.Result()

	docx, err := render.DOCX(result.OptimizedResume)
	if err != nil {
		metrics.IncOptimization(metrics.OutcomeFailed)
		return nil, fmt.Errorf("render docx: %w", err)
	}

	metrics.IncOptimization(metrics.OutcomeSuccess)
	telemetry.Info("optimize.completed", map[string]any{
		"request_id":  telemetry.RequestID(ctx),
		"format":      string(format),
		"parse_ok":    parsed.OK,
		"duration_ms": elapsed.Milliseconds(),
	})

	return &Outcome{
		ResumeText:  resumeText,
		Result:      result,
		ParseOK:     parsed.OK,
		ParseReason: parsed.Reason,
		DOCX:        docx,
		Text:        render.PlainText(result.OptimizedResume),
	}, nil
}

func validate(in Input) error {
	if in.ResumeFilename == "" && len(in.ResumeData) == 0 {
		return ErrMissingResume
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		return ErrMissingJobDescription
	}
	return nil
}
