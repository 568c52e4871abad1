package content

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var (
	titlePolicy    = bluemonday.StrictPolicy()
	disallowedRune = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?\-:;()]`)
	firstSentence  = regexp.MustCompile(`^[^.!?]*[.!?]`)
)

// CleanTitle strips any markup from a feed title and decodes entities.
func CleanTitle(title string) string {
	stripped := titlePolicy.Sanitize(title)
	return collapseSpaces(html.UnescapeString(stripped))
}

// CleanText turns an HTML fragment into a single line of plain text
// limited to letters, digits and basic punctuation.
func CleanText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	text := fragment
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err == nil {
		doc.Find("script, style").Remove()
		text = doc.Text()
	}

	text = collapseSpaces(text)
	text = disallowedRune.ReplaceAllString(text, "")
	return collapseSpaces(text)
}

// LeadSentence extracts the first sentence of a summary, at most maxLen
// characters long. Longer sentences are cut at a word boundary and end in "...".
func LeadSentence(fragment string, maxLen int) string {
	clean := CleanText(fragment)
	if clean == "" {
		return ""
	}

	sentence := firstSentence.FindString(clean)
	if sentence == "" {
		sentence = truncateRunes(clean, maxLen)
	}

	if utf8.RuneCountInString(sentence) > maxLen {
		cut := truncateRunes(sentence, maxLen)
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		sentence = cut + "..."
	}
	return sentence
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
