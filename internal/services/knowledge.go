package services

import (
	"strings"
	"sync/atomic"

	"github.com/safar-giki/safar-backend/internal/models"
)

// IndexEntry is one keyword set mapped to a canned answer.
type IndexEntry struct {
	Keywords map[string]bool
	Answer   string
	Category string
}

// Index is an immutable keyword index. It is rebuilt wholesale and
// swapped in; concurrent lookups never observe a half-built index.
type Index struct {
	entries []IndexEntry
}

// KnowledgeBase holds the current index behind an atomic pointer.
type KnowledgeBase struct {
	current atomic.Pointer[Index]
}

// NewKnowledgeBase creates a knowledge base with an empty index.
func NewKnowledgeBase() *KnowledgeBase {
	kb := &KnowledgeBase{}
	kb.current.Store(&Index{})
	return kb
}

// Swap replaces the current index.
func (kb *KnowledgeBase) Swap(index *Index) {
	kb.current.Store(index)
}

// Match runs a query against the current index.
func (kb *KnowledgeBase) Match(query string) (string, bool) {
	return kb.current.Load().Match(query)
}

// stopWords are dropped from queries before matching. Keyword sets are
// built without them, so dropping is safe.
var stopWords = map[string]bool{
	"the": true, "is": true, "are": true, "a": true, "an": true,
	"to": true, "of": true, "in": true, "on": true, "for": true,
	"and": true, "or": true, "do": true, "does": true, "can": true,
	"what": true, "whats": true, "how": true, "i": true, "my": true,
	"me": true, "it": true, "be": true, "will": true, "there": true,
}

// NormalizeQuery lowercases, strips punctuation, splits on whitespace,
// and drops stop words and tokens shorter than two characters.
func NormalizeQuery(query string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, token := range strings.Fields(b.String()) {
		if len(token) < 2 || stopWords[token] {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Match scores the query against every entry by keyword-set overlap and
// returns the best answer. Ties go to the first-inserted entry, so build
// order is the deterministic tie-break. A zero best score is no match.
func (ix *Index) Match(query string) (string, bool) {
	tokens := NormalizeQuery(query)
	if len(tokens) == 0 {
		return "", false
	}

	bestScore := 0
	bestIdx := -1
	for i, entry := range ix.entries {
		score := 0
		for _, token := range tokens {
			if entry.Keywords[token] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 {
		return "", false
	}
	return ix.entries[bestIdx].Answer, true
}

// Len reports the number of entries, for diagnostics.
func (ix *Index) Len() int {
	return len(ix.entries)
}

func keywordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}

// BuildIndex flattens the business settings into canned entries and
// appends the free-text FAQ rows, in a fixed order. It is a pure
// function of its inputs: rebuilding from the same settings and rows
// yields identical match outcomes.
func BuildIndex(snap SettingsSnapshot, rows []*models.FAQRow) *Index {
	entries := []IndexEntry{
		{
			Keywords: keywordSet("fare", "fares", "price", "cost", "ticket", "pay", "money", "rupee", "rupees", "pkr", "rs", "kitna", "paisa"),
			Answer:   faresAnswer(snap),
			Category: models.CategoryFares,
		},
		{
			Keywords: keywordSet("date", "dates", "when", "schedule", "timing", "day", "kab", "january", "jan", "saturday", "sunday"),
			Answer:   datesAnswer(snap),
			Category: models.CategoryDates,
		},
		{
			Keywords: keywordSet("route", "destination", "city", "multan", "bahawalpur", "bwp", "giki", "stop", "path"),
			Answer:   routeAnswer(snap),
			Category: models.CategoryRoute,
		},
		{
			Keywords: keywordSet("return", "back", "coming", "reverse", "wapsi"),
			Answer:   returnAnswer(snap),
			Category: models.CategoryReturn,
		},
		{
			Keywords: keywordSet("luggage", "bag", "bags", "baggage", "carry", "weight", "heavy", "suitcase", "saman", "allowance"),
			Answer:   luggageAnswer(snap),
			Category: models.CategoryLuggage,
		},
		{
			Keywords: keywordSet("location", "locations", "pickup", "drop", "point", "points", "station", "stand", "kahan"),
			Answer:   locationsAnswer(snap),
			Category: models.CategoryLocations,
		},
		{
			Keywords: keywordSet("book", "booking", "reserve", "process", "kaise", "help", "student"),
			Answer:   generalAnswer(),
			Category: models.CategoryGeneral,
		},
	}

	for _, row := range rows {
		if !row.Active {
			continue
		}
		entries = append(entries, IndexEntry{
			Keywords: keywordSet(row.Keywords...),
			Answer:   row.Answer,
			Category: row.Category,
		})
	}

	return &Index{entries: entries}
}
