package topics

import "slices"

// The following topics are accessible by merchants and the management UI.
// The list is a shared contract with the marketplace producers and is not
// configurable at runtime.
var known = []string{
	"addOffer",
	"buyOffer",
	"profit",
	"updateOffer",
	"updates",
	"salesPerMinutes",
	"cumulativeAmountBasedMarketshare",
	"cumulativeRevenueBasedMarketshare",
	"marketSituation",
	"revenuePerMinute",
	"revenuePerHour",
	"profitPerMinute",
	"inventory_level",
}

// Known returns the fixed topic set in contract order.
func Known() []string {
	out := make([]string, len(known))
	copy(out, known)
	return out
}

// IsKnown reports whether name belongs to the fixed topic set.
func IsKnown(name string) bool {
	return slices.Contains(known, name)
}
