package mapper

import (
	"regexp"
	"strconv"

	"github.com/mottahub/sync-backend/internal/adapter/karbon"
)

// titleYearRe matches the first 4-digit year-like token in a title.
var titleYearRe = regexp.MustCompile(`20\d{2}`)

// deriveTaxYear resolves a work item's tax year via a three-tier fallback,
// each tier tried only when the previous yields nothing:
//  1. the explicit TaxYear field;
//  2. the calendar year of YearEnd, accepted only in [2000, 2100) to guard
//     against parse garbage;
//  3. the first year-like token in the title.
//
// Returns nil when all three fail — never guessed further.
func deriveTaxYear(wi karbon.WorkItem) *int {
	if wi.TaxYear != nil {
		y := *wi.TaxYear
		return &y
	}

	if wi.YearEnd != nil {
		y := wi.YearEnd.Year()
		if y >= 2000 && y < 2100 {
			return &y
		}
	}

	if wi.Title != nil {
		if tok := titleYearRe.FindString(*wi.Title); tok != "" {
			y, err := strconv.Atoi(tok)
			if err == nil {
				return &y
			}
		}
	}

	return nil
}
