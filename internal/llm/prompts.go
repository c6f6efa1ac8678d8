package llm

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/system.txt
	systemPromptTemplate string
	//go:embed prompts/user.txt
	userPromptTemplate string
)

// Prompt is the system/user message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// SystemPrompt returns the fixed optimization rule set.
func SystemPrompt() string {
	return strings.TrimRight(systemPromptTemplate, "\n")
}

// UserPrompt embeds the resume and job text verbatim. No truncation is applied.
func UserPrompt(resumeText, jobText string) string {
	replacer := strings.NewReplacer(
		"{{RESUME_TEXT}}", resumeText,
		"{{JOB_DESCRIPTION}}", jobText,
	)
	return replacer.Replace(strings.TrimRight(userPromptTemplate, "\n"))
}

// BuildPrompt assembles both messages for one optimization request.
func BuildPrompt(resumeText, jobText string) Prompt {
	return Prompt{
		System: SystemPrompt(),
		User:   UserPrompt(resumeText, jobText),
	}
}
