// Package priority computes the display priority of a notification
// from the user's recent interaction history. Categories the user
// actively clicks are promoted; categories the user reflexively
// dismisses are demoted, independent of the category's static default.
package priority

import "github.com/nhle/rentwatch/internal/model"

// windowSize is how many recent interactions per category feed the
// ratio computation.
const windowSize = 10

// ratioThreshold is the click/dismiss ratio above which a category is
// promoted or demoted.
const ratioThreshold = 0.6

// defaults maps each category to its priority when no interaction
// history exists yet.
var defaults = map[model.Category]model.Priority{
	model.CategoryPayment:     model.PriorityHigh,
	model.CategoryLease:       model.PriorityMedium,
	model.CategoryMarketplace: model.PriorityMedium,
	model.CategoryVisit:       model.PriorityLow,
}

// For returns the priority for a new notification of the given
// category, derived from the most recent interactions recorded for
// that category in the ledger. Pure and deterministic for a given
// ledger snapshot.
func For(category model.Category, ledger model.Ledger) model.Priority {
	recent := ledger.Recent(category, windowSize)
	if len(recent) == 0 {
		return defaultFor(category)
	}

	var clicks, dismisses int
	for _, rec := range recent {
		switch rec.Kind {
		case model.InteractionClick:
			clicks++
		case model.InteractionDismiss:
			dismisses++
		}
	}

	total := float64(len(recent))
	switch {
	case float64(clicks)/total > ratioThreshold:
		return model.PriorityHigh
	case float64(dismisses)/total > ratioThreshold:
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// defaultFor returns the static default priority for a category.
func defaultFor(category model.Category) model.Priority {
	if p, ok := defaults[category]; ok {
		return p
	}
	return model.PriorityMedium
}
