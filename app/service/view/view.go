// Package view derives the read-side subsets the dashboard shows: the filtered list
// behind tabs, search and importance, and the chronological timeline.
package view

import (
	"historydash/app/service/store"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/elliotchance/pie/v2"
)

const ImportanceAll = "all"

type Criteria struct {
	// Tab is a pluralized item type ("characters"); empty matches every type.
	Tab string `json:"tab" query:"tab"`
	// Query is matched case-insensitively against title and description.
	Query string `json:"query" query:"q"`
	// Importance is an exact importance or "all"; empty means "all".
	Importance string `json:"importance" query:"importance"`
}

func (c Criteria) matches(item store.HistoricalItem, query string) bool {
	if c.Tab != "" && item.Type.Plural() != c.Tab {
		return false
	}

	if query != "" &&
		!strings.Contains(strings.ToLower(item.Title), query) &&
		!strings.Contains(strings.ToLower(item.Description), query) {
		return false
	}

	if c.Importance != "" && c.Importance != ImportanceAll && string(item.Importance) != c.Importance {
		return false
	}

	return true
}

func Filter(items []store.HistoricalItem, c Criteria) []store.HistoricalItem {
	query := strings.ToLower(c.Query)

	result := pie.Filter(items, func(item store.HistoricalItem) bool {
		return c.matches(item, query)
	})
	if result == nil {
		result = []store.HistoricalItem{}
	}

	return result
}

// Timeline orders items by the leading year of their year field, oldest first.
// Items without a readable year sort as year 0; ties keep their input order.
func Timeline(items []store.HistoricalItem) []store.HistoricalItem {
	result := make([]store.HistoricalItem, len(items))
	copy(result, items)

	sort.SliceStable(result, func(i, j int) bool {
		return LeadingYear(result[i].Year) < LeadingYear(result[j].Year)
	})

	return result
}

// LeadingYear parses the integer before the first '-' of a year or range string.
func LeadingYear(year string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(year), "-")
	head = strings.TrimSpace(head)

	end := 0
	for end < len(head) && head[end] >= '0' && head[end] <= '9' {
		end++
	}
	if end == 0 {
		return leadingDigits(head)
	}

	n, err := strconv.Atoi(head[:end])
	if err != nil {
		return 0
	}

	return n
}

// leadingDigits reads non-ASCII decimal digits such as "١٨٣٠". Like strconv.Atoi on
// the ASCII path, a value that does not fit an int counts as unreadable.
func leadingDigits(s string) int {
	n, seen := 0, false
	for _, r := range s {
		if !unicode.IsDigit(r) {
			break
		}
		d := digitValue(r)
		if d < 0 {
			break
		}
		if n > (math.MaxInt-d)/10 {
			return 0
		}
		n = n*10 + d
		seen = true
	}
	if !seen {
		return 0
	}

	return n
}

func digitValue(r rune) int {
	for _, zero := range []rune{'٠', '۰'} {
		if r >= zero && r <= zero+9 {
			return int(r - zero)
		}
	}

	return -1
}
