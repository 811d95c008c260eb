package models

// Intent is the closed-set category a transcript is classified into.
type Intent string

const (
	IntentGenerateDocument Intent = "generate-document"
	IntentSendEmail        Intent = "send-email"
	IntentSearch           Intent = "search"
	IntentCalendar         Intent = "calendar"
	IntentStorage          Intent = "storage"
	IntentWeather          Intent = "weather"
	IntentTime             Intent = "time"
	IntentNote             Intent = "note"
	IntentReminder         Intent = "reminder"
	IntentCalculate        Intent = "calculate"
	IntentTranslate        Intent = "translate"
	IntentGeneral          Intent = "general"
	IntentUnknown          Intent = "unknown"
)

// IntentProfile is the static behavior attached to an intent: its priority
// rank (1 = most actionable, 5 = fallback-only) and the capability servers
// it may route to. An empty server list means the intent is never
// capability-routed.
type IntentProfile struct {
	Priority int
	Servers  []string
}

// intentProfiles is the static intent table. Built once, read-only.
var intentProfiles = map[Intent]IntentProfile{
	IntentGenerateDocument: {Priority: 1, Servers: []string{"document-generator"}},
	IntentSendEmail:        {Priority: 1, Servers: []string{"email-server"}},
	IntentSearch:           {Priority: 2, Servers: []string{"search-server"}},
	IntentCalendar:         {Priority: 2, Servers: []string{"calendar-server"}},
	IntentStorage:          {Priority: 2, Servers: []string{"storage-server"}},
	IntentWeather:          {Priority: 3, Servers: nil},
	IntentTime:             {Priority: 3, Servers: nil},
	IntentNote:             {Priority: 3, Servers: nil},
	IntentReminder:         {Priority: 3, Servers: nil},
	IntentCalculate:        {Priority: 3, Servers: nil},
	IntentTranslate:        {Priority: 3, Servers: nil},
	IntentGeneral:          {Priority: 5, Servers: nil},
	IntentUnknown:          {Priority: 5, Servers: nil},
}

// Priority returns the static priority rank for the intent.
// Unregistered intents rank as fallback-only.
func (i Intent) Priority() int {
	if p, ok := intentProfiles[i]; ok {
		return p.Priority
	}
	return 5
}

// CapabilityServers returns the capability-server identifiers the intent may
// route to. The returned slice must not be mutated.
func (i Intent) CapabilityServers() []string {
	if p, ok := intentProfiles[i]; ok {
		return p.Servers
	}
	return nil
}

// CapabilityEligible reports whether the intent has at least one capability
// server registered for it.
func (i Intent) CapabilityEligible() bool {
	return len(i.CapabilityServers()) > 0
}

// AllIntents returns every registered intent, for iteration in stable-ish
// contexts (tests, status output). Order is not guaranteed.
func AllIntents() []Intent {
	intents := make([]Intent, 0, len(intentProfiles))
	for i := range intentProfiles {
		intents = append(intents, i)
	}
	return intents
}
