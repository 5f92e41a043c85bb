package engine

import (
	"strings"
	"testing"
)

func TestParseEvent(t *testing.T) {
	raw := "```json\n" + `{
		"title": "The River Rises",
		"description": "Spring floods threaten the granaries along the bank.",
		"visualChange": "Floodwaters lap at the lower districts",
		"choices": [
			{"id": "choice1", "label": "Build levees", "effects": {"gold": -1, "defense": 1}},
			{"id": "choice2", "label": "Relocate the granaries", "effects": {"food": -1}}
		],
		"yearAdvance": 5
	}` + "\n```"

	event, err := parseEvent(raw)
	if err != nil {
		t.Fatalf("parseEvent: %v", err)
	}
	if event.Title != "The River Rises" {
		t.Errorf("title = %q", event.Title)
	}
	if event.VisualChange != "Floodwaters lap at the lower districts" {
		t.Errorf("visual change = %q", event.VisualChange)
	}
	if len(event.Choices) != 2 || event.Choices[0].Effects.Defense != 1 {
		t.Errorf("choices = %+v", event.Choices)
	}
	if event.YearAdvance != 5 {
		t.Errorf("year advance = %d", event.YearAdvance)
	}
}

func TestParseEventRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "The settlement prospers, more or less."},
		{"missing title", `{"description": "d", "choices": [{"id":"a","label":"A"},{"id":"b","label":"B"}]}`},
		{"missing description", `{"title": "t", "choices": [{"id":"a","label":"A"},{"id":"b","label":"B"}]}`},
		{"single choice", `{"title": "t", "description": "d", "choices": [{"id":"a","label":"A"}]}`},
		{"no choices", `{"title": "t", "description": "d", "choices": []}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseEvent(tc.raw); err == nil {
				t.Errorf("parseEvent accepted %s", tc.name)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"  {}  ", "{}"},
		{"{}", "{}"},
	}
	for _, tc := range cases {
		if got := stripFences(tc.in); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestZoomLevel(t *testing.T) {
	cases := []struct {
		population int
		fragment   string
	}{
		{100, "Close aerial"},
		{499, "Close aerial"},
		{500, "Medium aerial"},
		{1999, "Medium aerial"},
		{2000, "Wide aerial"},
		{5000, "High aerial"},
		{15000, "Very high aerial"},
		{80000, "Very high aerial"},
	}
	for _, tc := range cases {
		if got := zoomLevel(tc.population); !strings.Contains(got, tc.fragment) {
			t.Errorf("zoomLevel(%d) = %q, want it to contain %q", tc.population, got, tc.fragment)
		}
	}
}

func TestCleanMessageLines(t *testing.T) {
	raw := strings.Join([]string{
		"1. Merchants haggle in the harbor market",
		`- "Scribes tally the season's grain"`,
		"",
		"• Drums echo from the temple steps",
		"This line runs far past the limit because it rambles on about nothing in particular for ages",
		"* Lanterns flicker along the walls",
		"2. Children chase geese through the forum",
		"3. A sixth line that must be dropped",
	}, "\n")

	got := cleanMessageLines(raw)
	want := []string{
		"Merchants haggle in the harbor market",
		"Scribes tally the season's grain",
		"Drums echo from the temple steps",
		"Lanterns flicker along the walls",
		"Children chase geese through the forum",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}
