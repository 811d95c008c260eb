package classifier

import (
	"testing"
	"time"
)

func TestExtractDocumentParams_FormatAndTitle(t *testing.T) {
	params := extractDocumentParams("create a report called budget summary")
	if params["format"] != "pdf" {
		t.Errorf("Expected default format pdf, got %v", params["format"])
	}
	if params["title"] != "budget summary" {
		t.Errorf("Expected title 'budget summary', got %v", params["title"])
	}

	params = extractDocumentParams("generate a markdown document")
	if params["format"] != "markdown" {
		t.Errorf("Expected markdown format, got %v", params["format"])
	}
	if _, ok := params["title"]; ok {
		t.Errorf("Expected no title, got %v", params["title"])
	}
}

func TestExtractEmailParams_AddressesPreferred(t *testing.T) {
	params := extractEmailParams("send email to john@example.com and jane@example.com about budget")

	to, ok := params["to"].([]string)
	if !ok || len(to) != 2 {
		t.Fatalf("Expected two recipients, got %v", params["to"])
	}
	if to[0] != "john@example.com" || to[1] != "jane@example.com" {
		t.Errorf("Unexpected recipients: %v", to)
	}
	if params["subject"] != "budget" {
		t.Errorf("Expected subject 'budget', got %v", params["subject"])
	}
}

func TestExtractEmailParams_NameFallback(t *testing.T) {
	params := extractEmailParams("send an email to bob regarding the offsite")

	to, ok := params["to"].([]string)
	if !ok || len(to) != 1 || to[0] != "bob" {
		t.Errorf("Expected to=[bob], got %v", params["to"])
	}
	if params["subject"] != "the offsite" {
		t.Errorf("Expected subject 'the offsite', got %v", params["subject"])
	}
}

func TestExtractCalendarParams_TitleAndDate(t *testing.T) {
	params := extractCalendarParams("schedule a meeting with the design team tomorrow")

	if params["title"] != "the design team" {
		t.Errorf("Expected title 'the design team', got %v", params["title"])
	}

	datetime, ok := params["datetime"].(time.Time)
	if !ok {
		t.Fatalf("Expected a datetime parameter, got %v", params["datetime"])
	}
	hours := time.Until(datetime).Hours()
	if hours < 23 || hours > 25 {
		t.Errorf("Expected tomorrow (~24h out), got %.1f hours", hours)
	}
}

func TestExtractCalendarParams_DefaultsToOneHour(t *testing.T) {
	params := extractCalendarParams("set up an appointment with the dentist")

	datetime, ok := params["datetime"].(time.Time)
	if !ok {
		t.Fatalf("Expected a datetime parameter, got %v", params["datetime"])
	}
	minutes := time.Until(datetime).Minutes()
	if minutes < 55 || minutes > 65 {
		t.Errorf("Expected default one hour out, got %.1f minutes", minutes)
	}
}

func TestExtractStorageParams_VerbsAndPath(t *testing.T) {
	cases := []struct {
		text string
		op   string
	}{
		{"save the file to reports/q3.pdf", "upload"},
		{"download my files", "download"},
		{"delete the budget file", "delete"},
		{"show the files in that folder", "list"},
		{"copy the file to backups", "copy"},
		{"the budget file", "list"}, // no verb: safest default
	}
	for _, tc := range cases {
		params := extractStorageParams(tc.text)
		if params["operation"] != tc.op {
			t.Errorf("extractStorageParams(%q) operation = %v, want %s", tc.text, params["operation"], tc.op)
		}
	}

	params := extractStorageParams("save the file to reports/q3.pdf")
	if params["path"] != "reports/q3.pdf" {
		t.Errorf("Expected path reports/q3.pdf, got %v", params["path"])
	}
}

func TestExtractCalculateParams_LongestRun(t *testing.T) {
	params := extractCalculateParams("calculate 25 * 4 + 10 please, then 7")
	if params["expression"] != "25 * 4 + 10" {
		t.Errorf("Expected longest expression run, got %v", params["expression"])
	}

	params = extractCalculateParams("calculate something vague")
	if _, ok := params["expression"]; ok {
		t.Errorf("Expected no expression without digits, got %v", params["expression"])
	}
}

func TestExtractTranslateParams(t *testing.T) {
	extract := newTranslateExtractor("spanish")

	params := extract("translate good morning to french")
	if params["source"] != "good morning" {
		t.Errorf("Expected source 'good morning', got %v", params["source"])
	}
	if params["target_language"] != "french" {
		t.Errorf("Expected target french, got %v", params["target_language"])
	}

	// Unknown target falls back to the configured default.
	params = extract("translate hello to klingon")
	if params["target_language"] != "spanish" {
		t.Errorf("Expected default target spanish, got %v", params["target_language"])
	}

	// No target phrasing at all.
	params = extract("translate hello world")
	if params["source"] != "hello world" {
		t.Errorf("Expected source 'hello world', got %v", params["source"])
	}
	if params["target_language"] != "spanish" {
		t.Errorf("Expected default target spanish, got %v", params["target_language"])
	}
}
