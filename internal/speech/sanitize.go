package speech

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// Markdown and symbol clean-up applied before text reaches a TTS backend.
// Order matters: emphasis before code, code before headings, and the
// allow-list runs last so the earlier rules can still see their markers.
var (
	boldMarks    = regexp.MustCompile(`\*\*(.*?)\*\*|__(.*?)__`)
	italicMarks  = regexp.MustCompile(`\*(.*?)\*|_(.*?)_`)
	codeMarks    = regexp.MustCompile("(?s)`{1,3}(.*?)`{1,3}")
	headingMarks = regexp.MustCompile(`(?m)^\s*#+\s*`)
	linkMarks    = regexp.MustCompile(`\[(.*?)\]\(.*?\)`)
	listMarks    = regexp.MustCompile(`(?m)^\s*[\-\*\d\.]+\s+`)
	quoteMarks   = regexp.MustCompile(`(?m)^\s*>\s*`)
	disallowed   = regexp.MustCompile(`[^\p{L}\p{M}\p{Nd}\s.,!?]`)
	newlineRuns  = regexp.MustCompile(`\n+`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// Sanitize strips markdown, HTML entities and any symbol a speech engine
// might stumble over, returning a single line of speakable text.
//
// The result only contains letters, digits, single spaces and . , ! ?
// and Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(raw string) string {
	text := cleanOnce(raw)
	// A second pass can still find a list marker that only became visible
	// after a symbol in front of it was dropped ("@1 thing"). Iterate until
	// stable; every pass after the first can only shorten the text.
	for {
		next := cleanOnce(text)
		if next == text {
			return text
		}
		text = next
	}
}

func cleanOnce(text string) string {
	text = html.UnescapeString(text)
	text = boldMarks.ReplaceAllString(text, "${1}${2}")
	text = italicMarks.ReplaceAllString(text, "${1}${2}")
	text = codeMarks.ReplaceAllString(text, "${1}")
	text = headingMarks.ReplaceAllString(text, "")
	text = linkMarks.ReplaceAllString(text, "${1}")
	text = listMarks.ReplaceAllString(text, "")
	text = quoteMarks.ReplaceAllString(text, "")
	text = disallowed.ReplaceAllString(text, "")
	text = newlineRuns.ReplaceAllString(text, " ")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Sentences sanitizes raw text and splits it into speakable sentences.
// Empty or symbol-only input yields no sentences.
func Sentences(raw string) []string {
	return SplitSentences(Sanitize(raw))
}

// SplitSentences splits text at whitespace that follows . ! or ?,
// keeping the punctuation attached to the preceding sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if isSentenceEnd(runes[i]) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
			flush()
		}
	}
	flush()
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// truncate shortens s to maxLen runes for logging.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
