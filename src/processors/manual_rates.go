package processors

// ManualEntryRates is the static rate table backing the manual income form.
// Kept deliberately separate from the live TCMB pipeline: the form needs a
// stable rate for the day's entry, while the bulletin widget refetches on
// every dashboard load. Unifying the two is an open product decision.
var ManualEntryRates = map[string]float64{
	"USD": 30.50,
	"EUR": 33.00,
	"GBP": 38.75,
}

// ManualRate returns the manual-entry rate for a currency code.
func ManualRate(currency string) (float64, bool) {
	rate, ok := ManualEntryRates[currency]
	return rate, ok
}
