package classifier

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"jarvislive/internal/models"
)

// Pattern is one immutable registry entry. Expressions are evaluated in list
// order and only the first match contributes to the score.
type Pattern struct {
	Intent      models.Intent
	Keywords    []string
	Expressions []*regexp.Regexp
	Priority    int
	Required    []string
	Optional    []string
}

// defaultPatterns builds the built-in registry. The general and unknown
// intents deliberately register no pattern: general is only reachable
// through the keyword-frequency fallback floor.
func defaultPatterns() []Pattern {
	return []Pattern{
		{
			Intent:   models.IntentGenerateDocument,
			Keywords: []string{"generate", "create", "document", "report", "draft"},
			Expressions: compile(
				`(?:generate|create|write|draft)\s+(?:an?\s+)?(?:document|report|letter|memo)(?:\s+(?:about|on|regarding)\s+(.+))?`,
				`(?:make|prepare)\s+(?:a\s+)?(?:document|report)(?:\s+(?:about|on)\s+(.+))?`,
			),
			Priority: models.IntentGenerateDocument.Priority(),
			Required: []string{"format"},
			Optional: []string{"title"},
		},
		{
			Intent:   models.IntentSendEmail,
			Keywords: []string{"send", "email", "mail"},
			Expressions: compile(
				`(?:send|compose|write)\s+(?:an?\s+)?(?:email|mail|message)\s+to\s+(.+)`,
				`email\s+(.+)`,
			),
			Priority: models.IntentSendEmail.Priority(),
			Required: []string{"to"},
			Optional: []string{"subject"},
		},
		{
			Intent:   models.IntentSearch,
			Keywords: []string{"search", "find", "look up"},
			Expressions: compile(
				`search\s+(?:for\s+)?(.+)`,
				`(?:find|look\s+up)\s+(.+)`,
			),
			Priority: models.IntentSearch.Priority(),
			Required: []string{"query"},
		},
		{
			Intent:   models.IntentCalendar,
			Keywords: []string{"schedule", "meeting", "appointment", "calendar", "event"},
			Expressions: compile(
				`(?:schedule|book|set\s+up)\s+(?:an?\s+)?(?:meeting|appointment|event|call)(?:\s+(.+))?`,
				`(?:add|put)\s+(.+?)\s+(?:on|to)\s+(?:my\s+)?calendar`,
			),
			Priority: models.IntentCalendar.Priority(),
			Required: []string{"title", "datetime"},
		},
		{
			Intent:   models.IntentStorage,
			Keywords: []string{"save", "upload", "download", "file"},
			Expressions: compile(
				`(?:save|upload|download|delete|remove|move|copy|list)\s+(?:the\s+|my\s+)?(?:file|files|folder|document)?\s*(.*)`,
			),
			Priority: models.IntentStorage.Priority(),
			Required: []string{"operation"},
			Optional: []string{"path"},
		},
		{
			Intent:   models.IntentWeather,
			Keywords: []string{"weather", "temperature", "forecast"},
			Expressions: compile(
				`weather\s+(?:in|for|at)\s+(.+)`,
				`(?:what|how)\s+is\s+the\s+(?:weather|temperature|forecast)`,
			),
			Priority: models.IntentWeather.Priority(),
			Optional: []string{"location"},
		},
		{
			Intent:   models.IntentTime,
			Keywords: []string{"time", "date", "clock"},
			Expressions: compile(
				`what\s+time\s+is\s+it`,
				`what\s+(?:is\s+)?(?:the\s+)?(?:time|date)`,
			),
			Priority: models.IntentTime.Priority(),
		},
		{
			Intent:   models.IntentNote,
			Keywords: []string{"note", "remember", "jot"},
			Expressions: compile(
				`(?:take|make)\s+a\s+note\s*(?:that|about|saying)?\s*(.*)`,
				`jot\s+(?:down\s+)?(.+)`,
			),
			Priority: models.IntentNote.Priority(),
			Optional: []string{"content"},
		},
		{
			Intent:   models.IntentReminder,
			Keywords: []string{"remind", "reminder"},
			Expressions: compile(
				`remind\s+me\s+(?:to\s+)?(.+)`,
				`set\s+a\s+reminder\s+(?:to\s+|for\s+)?(.+)`,
			),
			Priority: models.IntentReminder.Priority(),
			Optional: []string{"task"},
		},
		{
			Intent:   models.IntentCalculate,
			Keywords: []string{"calculate", "compute", "plus", "minus", "times", "divided"},
			Expressions: compile(
				`(?:calculate|compute)\s+(.+)`,
				`what\s+is\s+([\d\s+\-*/().%^]+)`,
			),
			Priority: models.IntentCalculate.Priority(),
			Required: []string{"expression"},
		},
		{
			Intent:   models.IntentTranslate,
			Keywords: []string{"translate", "translation"},
			Expressions: compile(
				`translate\s+(.+?)\s+(?:to|into)\s+(\w+)`,
				`how\s+do\s+you\s+say\s+(.+?)\s+in\s+(\w+)`,
			),
			Priority: models.IntentTranslate.Priority(),
			Required: []string{"source", "target_language"},
		},
	}
}

func compile(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		compiled = append(compiled, regexp.MustCompile(expr))
	}
	return compiled
}

// sortPatterns orders the registry ascending by priority, once at startup.
// The stable sort preserves registration order within a priority rank, which
// is the tie-break order when scores are equal.
func sortPatterns(patterns []Pattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Priority < patterns[j].Priority
	})
}

// patternSpec is the YAML form of a registry entry.
type patternSpec struct {
	Intent      string   `yaml:"intent"`
	Keywords    []string `yaml:"keywords"`
	Expressions []string `yaml:"expressions"`
	Priority    int      `yaml:"priority"`
	Required    []string `yaml:"required,omitempty"`
	Optional    []string `yaml:"optional,omitempty"`
}

// LoadPatterns reads a YAML pattern registry, replacing the built-ins.
// Expressions are compiled eagerly so a bad registry fails at startup
// instead of at classification time.
func LoadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read patterns file: %w", err)
	}

	var specs []patternSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse patterns YAML: %w", err)
	}

	patterns := make([]Pattern, 0, len(specs))
	for _, spec := range specs {
		if spec.Intent == "" || len(spec.Keywords) == 0 {
			return nil, fmt.Errorf("pattern for %q needs an intent and at least one keyword", spec.Intent)
		}
		exprs := make([]*regexp.Regexp, 0, len(spec.Expressions))
		for _, raw := range spec.Expressions {
			re, err := regexp.Compile(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid expression %q for intent %s: %w", raw, spec.Intent, err)
			}
			exprs = append(exprs, re)
		}
		patterns = append(patterns, Pattern{
			Intent:      models.Intent(spec.Intent),
			Keywords:    spec.Keywords,
			Expressions: exprs,
			Priority:    spec.Priority,
			Required:    spec.Required,
			Optional:    spec.Optional,
		})
	}
	return patterns, nil
}
