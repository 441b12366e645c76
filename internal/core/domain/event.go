package domain

// TransactionEvent is a single entry from the indexing provider's webhook
// payload. Events are ephemeral: consumed once per dispatch, never stored.
type TransactionEvent struct {
	Signature string `json:"signature"`
	Account   string `json:"account"`
	Type      string `json:"type,omitempty"`
}
