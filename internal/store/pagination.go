package store

const DefaultLimit = 100

// Page is offset pagination as skip/limit.
type Page struct {
	Skip  int
	Limit int
}

// Normalize clamps skip to >= 0 and replaces a non-positive limit with
// DefaultLimit. Larger limits are passed through as requested.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	return p
}
