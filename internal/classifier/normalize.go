package classifier

import (
	"regexp"
	"strings"
)

// contractions is the fixed expansion table applied before scoring.
// Keys must already be lowercase.
var contractions = map[string]string{
	"don't":     "do not",
	"doesn't":   "does not",
	"didn't":    "did not",
	"can't":     "cannot",
	"couldn't":  "could not",
	"won't":     "will not",
	"wouldn't":  "would not",
	"shouldn't": "should not",
	"isn't":     "is not",
	"aren't":    "are not",
	"wasn't":    "was not",
	"weren't":   "were not",
	"i'm":       "i am",
	"i've":      "i have",
	"i'll":      "i will",
	"it's":      "it is",
	"that's":    "that is",
	"what's":    "what is",
	"let's":     "let us",
	"you're":    "you are",
	"we're":     "we are",
	"they're":   "they are",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases the transcript, expands contractions, and collapses
// repeated whitespace. Scoring and extraction run against the normalized
// form; the original text is preserved in the classification result.
func Normalize(text string) string {
	normalized := strings.ToLower(text)
	for contraction, expansion := range contractions {
		normalized = strings.ReplaceAll(normalized, contraction, expansion)
	}
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}
