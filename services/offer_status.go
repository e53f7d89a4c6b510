package services

import (
	"fmt"
	"slices"
)

var offerTransitions = map[string][]string{
	"draft":    {"sent"},
	"sent":     {"accepted", "rejected", "draft"},
	"rejected": {"draft"},
}

// NextOfferStatuses lists the statuses an offer may move to from status.
func NextOfferStatuses(status string) []string {
	return offerTransitions[status]
}

// CanTransition reports whether an offer may move from one status to another.
func CanTransition(from, to string) bool {
	return slices.Contains(offerTransitions[from], to)
}

// ValidateTransition returns an error describing a forbidden status change.
func ValidateTransition(from, to string) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("cannot change offer status from %q to %q", from, to)
	}
	return nil
}

// OfferReadOnly reports whether the line items of an offer are frozen.
func OfferReadOnly(status string) bool {
	return status == "accepted" || status == "rejected"
}
