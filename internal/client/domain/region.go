package domain

// Region is a named group of candidate relay endpoints. Endpoints are kept in
// configuration order, which is also the latency tie-break order.
type Region struct {
	Code      string
	Name      string
	Endpoints []string
}

// Regions is the loaded region table, in configuration order.
type Regions []Region

// Lookup returns the region with the given code.
func (rs Regions) Lookup(code string) (Region, bool) {
	for _, r := range rs {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}
