package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-optimizer/internal/bootstrap"
	"resume-optimizer/internal/fetch"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/storage/object/local"
	"resume-optimizer/resume/render"
)

var (
	resumePath string
	jobPath    string
	jobURL     string
	outDir     string
	provider   string
	model      string
	jsonOutput bool
)

func init() {
	rootCmd.Flags().StringVarP(&resumePath, "resume", "r", "", "Path to resume file (pdf, docx or txt)")
	rootCmd.Flags().StringVarP(&jobPath, "jd", "j", "", "Path to job description text file")
	rootCmd.Flags().StringVar(&jobURL, "jd-url", "", "Job posting URL, used when --jd is not given")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for optimized_resume.docx and optimized_resume.txt")
	rootCmd.Flags().StringVar(&provider, "provider", "", "LLM provider (overrides LLM_PROVIDER)")
	rootCmd.Flags().StringVar(&model, "model", "", "LLM model (overrides LLM_MODEL)")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON instead of text")
	_ = rootCmd.MarkFlagRequired("resume")
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.Load()
	if provider != "" {
		cfg.LLMProvider = strings.ToLower(strings.TrimSpace(provider))
	}
	if model != "" {
		cfg.LLMModel = strings.TrimSpace(model)
	}
	settings := cfg.LLMSettings()
	if err := settings.Validate(); err != nil {
		return err
	}
	client, err := bootstrap.BuildLLM(ctx, cfg)
	if err != nil {
		return err
	}

	resumeData, err := os.ReadFile(resumePath)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}

	jobText, err := loadJobDescription(ctx, cfg)
	if err != nil {
		return err
	}

	svc := &optimizer.Service{LLM: client, Settings: settings}
	out, err := svc.Optimize(ctx, optimizer.Input{
		ResumeFilename: filepath.Base(resumePath),
		ResumeData:     resumeData,
		JobDescription: jobText,
	})
	if err != nil {
		return errors.New(optimizer.UserMessage(err))
	}

	store := local.New(outDir)
	if _, err := store.Put(ctx, render.DocxFileName, render.DocxContentType, bytes.NewReader(out.DOCX)); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	if _, err := store.Put(ctx, render.TextFileName, render.TextContentType, bytes.NewReader(out.Text)); err != nil {
		return fmt.Errorf("write txt: %w", err)
	}

	return printOutcome(cmd.OutOrStdout(), out)
}

func loadJobDescription(ctx context.Context, cfg config.Config) (string, error) {
	if strings.TrimSpace(jobPath) != "" {
		data, err := os.ReadFile(jobPath)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		return string(data), nil
	}
	if strings.TrimSpace(jobURL) == "" {
		return "", nil
	}
	res, err := fetch.Fetch(ctx, fetch.New(&fetch.Options{Timeout: cfg.FetchTimeout}), jobURL)
	if err != nil {
		return "", errors.New(fetch.UserMessage(err))
	}
	return res.Text, nil
}

func printOutcome(w io.Writer, out *optimizer.Outcome) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Result      any    `json:"result"`
			ParseOK     bool   `json:"parseOk"`
			ParseReason string `json:"parseReason,omitempty"`
		}{out.Result, out.ParseOK, out.ParseReason})
	}

	if !out.ParseOK {
		fmt.Fprintf(w, "Warning: model output was not valid JSON (%s)\n\n", out.ParseReason)
	}
	fmt.Fprintf(w, "### Optimized Resume (ATS-Friendly)\n%s\n\n", out.Result.OptimizedResume)
	fmt.Fprintf(w, "### Changelog\n%s\n\n", out.Result.Changelog)
	fmt.Fprintf(w, "### Suggestions for Improvement\n%s\n", out.Result.Suggestions)
	return nil
}
