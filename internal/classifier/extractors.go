package classifier

import (
	"regexp"
	"strings"
	"time"

	"jarvislive/internal/models"
)

// ExtractorFunc is a pure function from normalized text to a partial
// parameter map. Extractors never fail: when nothing matches they return
// the safest documented default so routing always has a usable set.
type ExtractorFunc func(text string) map[string]interface{}

var (
	titleRe     = regexp.MustCompile(`(?:titled|called|named)\s+(.+)`)
	emailAddrRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	emailToRe   = regexp.MustCompile(`\bto\s+([a-z][a-z0-9._-]*)`)
	subjectRe   = regexp.MustCompile(`(?:about|regarding|subject|re:)\s+(.+)`)
	eventRe     = regexp.MustCompile(`(?:meeting|appointment|event)\s+(?:about\s+|with\s+|for\s+)?(.+)`)
	scheduleRe  = regexp.MustCompile(`schedule\s+(?:an?\s+)?(.+)`)
	pathRe      = regexp.MustCompile(`\bto\s+(\S+)`)
	mathRe      = regexp.MustCompile(`[\d+\-*/().%^\s]+`)
	translateRe = regexp.MustCompile(`translate\s+(.+?)\s+(?:to|into)\s+(\w+)`)
	sayInRe     = regexp.MustCompile(`how\s+do\s+you\s+say\s+(.+?)\s+in\s+(\w+)`)
	sourceRe    = regexp.MustCompile(`translate\s+(.+)`)
	digitRe     = regexp.MustCompile(`\d`)
)

var documentFormats = []string{"pdf", "docx", "html", "markdown"}

// targetLanguages is the fixed set a spoken target language is matched
// against. Anything else falls back to the configured default.
var targetLanguages = []string{
	"spanish", "french", "german", "italian", "portuguese", "dutch",
	"russian", "chinese", "japanese", "korean", "arabic", "hindi", "english",
}

// dateKeywords map relative-date phrasing to an offset from now. Weekdays
// are handled separately.
var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// storageVerbRe matches the first spoken storage verb as a whole word, so
// "budget" can never read as "get".
var storageVerbRe = regexp.MustCompile(`\b(save|upload|download|get|delete|remove|list|show|move|copy)\b`)

// storageVerbs maps spoken verbs to storage operations.
var storageVerbs = map[string]string{
	"save":     "upload",
	"upload":   "upload",
	"download": "download",
	"get":      "download",
	"delete":   "delete",
	"remove":   "delete",
	"list":     "list",
	"show":     "list",
	"move":     "move",
	"copy":     "copy",
}

func extractDocumentParams(text string) map[string]interface{} {
	params := map[string]interface{}{"format": "pdf"}
	for _, format := range documentFormats {
		if strings.Contains(text, format) {
			params["format"] = format
			break
		}
	}
	if m := titleRe.FindStringSubmatch(text); m != nil {
		params["title"] = strings.TrimSpace(m[1])
	}
	return params
}

func extractEmailParams(text string) map[string]interface{} {
	params := map[string]interface{}{}
	if addrs := emailAddrRe.FindAllString(text, -1); len(addrs) > 0 {
		params["to"] = addrs
	} else if m := emailToRe.FindStringSubmatch(text); m != nil {
		params["to"] = []string{m[1]}
	}
	if m := subjectRe.FindStringSubmatch(text); m != nil {
		params["subject"] = strings.TrimSpace(m[1])
	}
	return params
}

func extractCalendarParams(text string) map[string]interface{} {
	params := map[string]interface{}{"datetime": resolveRelativeDate(text)}
	for _, re := range []*regexp.Regexp{eventRe, scheduleRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			if title := trimDatePhrase(strings.TrimSpace(m[1])); title != "" {
				params["title"] = title
			}
			break
		}
	}
	return params
}

// resolveRelativeDate maps the small set of supported relative-date keywords
// to a concrete time, defaulting to one hour from now.
func resolveRelativeDate(text string) time.Time {
	now := time.Now()
	if strings.Contains(text, "next week") {
		return now.AddDate(0, 0, 7)
	}
	if strings.Contains(text, "tomorrow") {
		return now.Add(24 * time.Hour)
	}
	for name, day := range weekdays {
		if strings.Contains(text, name) {
			offset := (int(day) - int(now.Weekday()) + 7) % 7
			if offset == 0 {
				offset = 7
			}
			return now.AddDate(0, 0, offset)
		}
	}
	return now.Add(time.Hour)
}

// trimDatePhrase strips a trailing relative-date phrase from an event title
// so "standup tomorrow" titles as "standup".
func trimDatePhrase(title string) string {
	markers := []string{" tomorrow", " today", " next week", " at ", " on "}
	for name := range weekdays {
		markers = append(markers, " "+name)
	}
	for _, marker := range markers {
		if idx := strings.Index(title, marker); idx > 0 {
			title = title[:idx]
		}
	}
	return strings.TrimSpace(title)
}

func extractStorageParams(text string) map[string]interface{} {
	params := map[string]interface{}{"operation": "list"}
	if m := storageVerbRe.FindStringSubmatch(text); m != nil {
		params["operation"] = storageVerbs[m[1]]
	}
	if m := pathRe.FindStringSubmatch(text); m != nil {
		params["path"] = m[1]
	}
	return params
}

// extractCalculateParams picks the longest run of digits and operators.
func extractCalculateParams(text string) map[string]interface{} {
	params := map[string]interface{}{}
	var longest string
	for _, run := range mathRe.FindAllString(text, -1) {
		run = strings.TrimSpace(run)
		if len(run) > len(longest) && digitRe.MatchString(run) {
			longest = run
		}
	}
	if longest != "" {
		params["expression"] = longest
	}
	return params
}

// newTranslateExtractor binds the configured default target language.
func newTranslateExtractor(defaultLanguage string) ExtractorFunc {
	return func(text string) map[string]interface{} {
		params := map[string]interface{}{"target_language": defaultLanguage}
		for _, re := range []*regexp.Regexp{translateRe, sayInRe} {
			if m := re.FindStringSubmatch(text); m != nil {
				params["source"] = strings.TrimSpace(m[1])
				if lang := strings.ToLower(m[2]); knownLanguage(lang) {
					params["target_language"] = lang
				}
				return params
			}
		}
		if m := sourceRe.FindStringSubmatch(text); m != nil {
			params["source"] = strings.TrimSpace(m[1])
		}
		return params
	}
}

func knownLanguage(lang string) bool {
	for _, known := range targetLanguages {
		if lang == known {
			return true
		}
	}
	return false
}

// buildExtractors wires the per-intent extractor table. Intents without an
// entry rely solely on regex capture groups.
func buildExtractors(defaultLanguage string) map[models.Intent]ExtractorFunc {
	return map[models.Intent]ExtractorFunc{
		models.IntentGenerateDocument: extractDocumentParams,
		models.IntentSendEmail:        extractEmailParams,
		models.IntentCalendar:         extractCalendarParams,
		models.IntentStorage:          extractStorageParams,
		models.IntentCalculate:        extractCalculateParams,
		models.IntentTranslate:        newTranslateExtractor(defaultLanguage),
	}
}
