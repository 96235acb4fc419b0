package services

import (
	"reflect"
	"strings"
	"testing"

	"github.com/safar-giki/safar-backend/internal/models"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"lowercases and strips punctuation", "What's the FARE?!", []string{"fare"}},
		{"drops stop words", "what is the fare to multan", []string{"fare", "multan"}},
		{"drops short tokens", "go to x y multan", []string{"go", "multan"}},
		{"keeps digits", "on 03 january", []string{"03", "january"}},
		{"empty query", "   ", nil},
		{"only stop words", "what is it", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuery(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeQuery(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestIndexMatchScoring(t *testing.T) {
	index := &Index{entries: []IndexEntry{
		{Keywords: keywordSet("fare", "price"), Answer: "fares"},
		{Keywords: keywordSet("luggage", "allowance", "bags"), Answer: "luggage"},
	}}

	tests := []struct {
		query   string
		want    string
		matched bool
	}{
		{"how much is the luggage allowance", "luggage", true},
		{"fare please", "fares", true},
		{"what time is lunch", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := index.Match(tt.query)
		if ok != tt.matched || got != tt.want {
			t.Errorf("Match(%q) = (%q, %v), want (%q, %v)", tt.query, got, ok, tt.want, tt.matched)
		}
	}
}

func TestIndexMatchTieBreakIsFirstInserted(t *testing.T) {
	index := &Index{entries: []IndexEntry{
		{Keywords: keywordSet("bus", "seat"), Answer: "first"},
		{Keywords: keywordSet("bus", "trip"), Answer: "second"},
	}}

	// "bus" scores 1 against both entries; the first one must win, every
	// time.
	for i := 0; i < 100; i++ {
		got, ok := index.Match("bus")
		if !ok || got != "first" {
			t.Fatalf("iteration %d: Match = (%q, %v), want stable first entry", i, got, ok)
		}
	}
}

func TestBuildIndexIsDeterministic(t *testing.T) {
	snap := DefaultSettings()
	rows := []*models.FAQRow{
		{Question: "wifi?", Answer: "No wifi on board.", Keywords: []string{"wifi", "internet"}, Active: true},
		{Question: "old", Answer: "inactive", Keywords: []string{"wifi"}, Active: false},
	}

	a := BuildIndex(snap, rows)
	b := BuildIndex(snap, rows)

	queries := []string{"fare", "luggage bags", "wifi", "when is the bus", "pickup point"}
	for _, q := range queries {
		gotA, okA := a.Match(q)
		gotB, okB := b.Match(q)
		if gotA != gotB || okA != okB {
			t.Errorf("rebuild changed Match(%q): (%q,%v) vs (%q,%v)", q, gotA, okA, gotB, okB)
		}
	}

	// The inactive row must not be indexed: "wifi" hits the active row.
	if got, ok := a.Match("is there wifi"); !ok || got != "No wifi on board." {
		t.Errorf("Match(wifi) = (%q, %v)", got, ok)
	}
}

func TestBuildIndexReflectsSettings(t *testing.T) {
	snap := DefaultSettings()
	snap.Fares.Multan = 4100

	index := BuildIndex(snap, nil)
	answer, ok := index.Match("ticket price")
	if !ok || !strings.Contains(answer, "4100") {
		t.Errorf("fares answer = %q (ok=%v), want the overridden fare", answer, ok)
	}
}

func TestKnowledgeBaseSwap(t *testing.T) {
	kb := NewKnowledgeBase()

	if _, ok := kb.Match("fare"); ok {
		t.Fatal("empty knowledge base matched something")
	}

	kb.Swap(&Index{entries: []IndexEntry{
		{Keywords: keywordSet("fare"), Answer: "Rs. 3500"},
	}})

	if got, ok := kb.Match("fare"); !ok || got != "Rs. 3500" {
		t.Errorf("Match after swap = (%q, %v)", got, ok)
	}
}
