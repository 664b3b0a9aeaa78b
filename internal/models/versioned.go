package models

// Versioned adds the optimistic-lock column. Embed it anonymously.
// Every write path compares the caller's expected row_version inside
// the update transaction and bumps it on success.
type Versioned struct {
	RowVersion int64 `json:"row_version"`
}
