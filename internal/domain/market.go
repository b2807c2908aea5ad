package domain

// Market is the subset of a Polymarket Gamma market the snapshot resolver
// needs. The token and price lists are kept in their decoded form; a nil
// OutcomePrices means the payload carried no embedded prices.
type Market struct {
	ID            string
	Question      string
	Slug          string
	EndDate       string
	TokenIDs      []string // [up, down] for up/down markets
	OutcomePrices []string // raw decimal strings, e.g. ["0.62","0.38"]
	Closed        bool
}
