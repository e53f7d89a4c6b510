package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// formatDocNumber constructs a document number: {prefix}-{yy}-{seq:04d}.
func formatDocNumber(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s-%02d-%04d", prefix, year%100, sequence)
}

// nextDocNumber returns one past the highest sequence already used for the
// prefix and year in collection.field. Numbers stay unique after deletions.
func nextDocNumber(app core.App, collection, field, prefix string, now time.Time) (string, error) {
	yearPrefix := fmt.Sprintf("%s-%02d-", prefix, now.Year()%100)

	existing, err := app.FindRecordsByFilter(
		collection,
		field+" ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{"prefix": yearPrefix + "%"},
	)
	if err != nil {
		return "", fmt.Errorf("query %s numbers: %w", collection, err)
	}

	highest := 0
	for _, rec := range existing {
		rest, ok := strings.CutPrefix(rec.GetString(field), yearPrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > highest {
			highest = n
		}
	}
	return formatDocNumber(prefix, now.Year(), highest+1), nil
}

// GenerateOfferNumber creates the next offer number.
// Format: OFF-{yy}-{sequence}, sequence 4-digit zero-padded per calendar year.
func GenerateOfferNumber(app core.App, now time.Time) (string, error) {
	return nextDocNumber(app, "offers", "offer_number", "OFF", now)
}

// GenerateContractNumber creates the next contract number: CTR-{yy}-{sequence}.
func GenerateContractNumber(app core.App, now time.Time) (string, error) {
	return nextDocNumber(app, "contracts", "contract_number", "CTR", now)
}
