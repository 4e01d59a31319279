package domain

// RepresentativePrice returns the smallest of the successfully parsed variant
// prices, or zero when there are none.
func RepresentativePrice(parsed []*Money) *Money {
	var lowest *Money
	for _, p := range parsed {
		if p == nil {
			continue
		}
		if lowest == nil || p.LessThan(lowest) {
			lowest = p
		}
	}
	if lowest == nil {
		return Zero()
	}
	return lowest.Copy()
}
