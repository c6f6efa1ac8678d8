package render

import "strings"

const bulletPrefix = "- "

// Paragraph is one rendered line of the optimized resume.
type Paragraph struct {
	Text   string
	Bullet bool
}

// Paragraphs splits text into one paragraph per line. Blank lines stay as
// empty paragraphs and lines starting with "- " become bullet items.
func Paragraphs(text string) []Paragraph {
	lines := splitLines(text)
	out := make([]Paragraph, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			out = append(out, Paragraph{})
		case strings.HasPrefix(trimmed, bulletPrefix):
			out = append(out, Paragraph{Text: trimmed[len(bulletPrefix):], Bullet: true})
		default:
			out = append(out, Paragraph{Text: line})
		}
	}
	return out
}

// splitLines breaks on \r\n, \n and \r. A trailing newline does not produce
// an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	return strings.Split(normalized, "\n")
}
