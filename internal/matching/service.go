// Package matching suggests categories for new finance records from the
// records that were categorized before.
package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/MrJamesThe3rd/vykazy/internal/finance"
)

// minPatternLen keeps very short descriptions from matching everything.
const minPatternLen = 3

// Lister exposes the stored records. *finance.Service satisfies it.
type Lister interface {
	List() []finance.Record
}

type Service struct {
	records Lister
}

func NewService(records Lister) *Service {
	return &Service{records: records}
}

// Suggest returns the category of the stored record of the same type whose
// description is the longest one contained in description. Case and
// diacritics are ignored and ties go to the newer record. It returns an empty
// string when nothing matches.
func (s *Service) Suggest(description string, typ finance.Type) string {
	target := normalize(description)
	if target == "" {
		return ""
	}

	var (
		best    string
		bestLen int
	)

	// List is newest first, so the first record of a given length wins.
	for _, r := range s.records.List() {
		if r.Type != typ || r.Category == "" {
			continue
		}

		pattern := normalize(r.Description)

		n := utf8.RuneCountInString(pattern)
		if n < minPatternLen || n <= bestLen {
			continue
		}

		if strings.Contains(target, pattern) {
			best, bestLen = r.Category, n
		}
	}

	return best
}

// Fill sets the category of every uncategorized param that has a suggestion
// and reports how many were filled.
func (s *Service) Fill(params []finance.CreateParams) int {
	filled := 0

	for i, p := range params {
		if p.Category != "" {
			continue
		}

		if c := s.Suggest(p.Description, p.Type); c != "" {
			params[i].Category = c
			filled++
		}
	}

	return filled
}

func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)

	out, _, err := transform.String(t, strings.Join(strings.Fields(s), " "))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}

	return out
}
