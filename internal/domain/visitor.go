package domain

// VisitorLabel is the per-visitor training target: whether the visitor
// completes a purchase on a return (non-first) session. Computed once per
// pipeline run from the visitor's full session history.
type VisitorLabel struct {
	VisitorID       string
	WillBuyOnReturn bool
}
