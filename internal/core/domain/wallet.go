package domain

import "regexp"

// Solana addresses are base58-encoded, 32 to 44 characters. The check is
// purely syntactic; it does not prove the address exists on chain.
var addressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// ValidAddress reports whether s looks like a Solana wallet address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// SolscanTxURL builds the explorer link for a transaction signature.
func SolscanTxURL(signature string) string {
	return "https://solscan.io/tx/" + signature
}
