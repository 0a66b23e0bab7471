package domain

import "regexp"

type Pair string

// CommonPairs are the pairs offered by the quote form.
var CommonPairs = []Pair{"EUR/USD", "GBP/USD", "USD/JPY", "USD/CHF", "AUD/USD"}

var pairRe = regexp.MustCompile(`^[A-Z]{3}/[A-Z]{3}$`)

// ValidatePair checks the XXX/YYY format and rejects identical legs.
func ValidatePair(p string) bool {
	if !pairRe.MatchString(p) {
		return false
	}
	return p[:3] != p[4:]
}
