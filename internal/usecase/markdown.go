package usecase

import (
	"regexp"
	"strings"
)

// markdownIndicators mark text that is already formatted; such text is
// returned unchanged, which also makes the enhancer idempotent.
var markdownIndicators = []string{"**", "`", "#"}

var listMarkers = []string{"- ", "* ", "+ "}

// importantWords are bold-wrapped in plain prose lines. Longer words come
// first so that "errore" is never clipped by its prefix "error".
var importantWordPattern = regexp.MustCompile(
	`\b(Importante|importante|Attenzione|attenzione|Errore|errore|Successo|successo|Warning|warning|Error|error|Nota|nota)\b`)

var (
	uppercaseTokenPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9_]{2,}\b`)
	filenameTokenPattern  = regexp.MustCompile(`\b[\w./-]+\.(txt|md|go|py|js|ts|json|yaml|yml|csv|pdf|html|css|sh|sql)\b`)
	numberedListPattern   = regexp.MustCompile(`^\d+[.)] `)
)

// EnhanceMarkdown applies deterministic markdown formatting to plain-text
// provider output. Text that already contains markdown is returned
// unchanged. Pure function, no side effects.
func EnhanceMarkdown(text string) string {
	if hasMarkdown(text) {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = enhanceLine(line)
	}
	return strings.Join(lines, "\n")
}

func hasMarkdown(text string) bool {
	for _, indicator := range markdownIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if isListLine(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func isListLine(line string) bool {
	for _, marker := range listMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return numberedListPattern.MatchString(line)
}

func enhanceLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return line
	}

	// Short trailing-colon lines stay as they are; longer ones become
	// section headings.
	if strings.HasSuffix(trimmed, ":") && len(trimmed) > 10 {
		return "### " + trimmed
	}

	if isListLine(trimmed) {
		return line
	}

	if filenameTokenPattern.MatchString(line) {
		return filenameTokenPattern.ReplaceAllString(line, "`$0`")
	}
	if uppercaseTokenPattern.MatchString(line) {
		return uppercaseTokenPattern.ReplaceAllString(line, "`$0`")
	}

	return importantWordPattern.ReplaceAllString(line, "**$1**")
}
