package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client defines the Solana RPC operations the bot needs.
type Client interface {
	// Balance returns the lamport balance of an address.
	Balance(ctx context.Context, address string) (uint64, error)

	// RecentSignatures returns up to limit recent confirmed transaction
	// signatures for an address, newest first.
	RecentSignatures(ctx context.Context, address string, limit int) ([]string, error)

	// TransactionDelta returns the fee payer (first account key) of a
	// transaction and the lamports its balance decreased by.
	TransactionDelta(ctx context.Context, signature string) (payer string, lamports uint64, err error)
}

// RPCClient calls a Solana JSON-RPC endpoint.
type RPCClient struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// NewRPCClient creates a client for the given endpoint. commitment is one
// of processed, confirmed, finalized; empty defaults to confirmed.
func NewRPCClient(endpoint, commitment string) *RPCClient {
	c := rpc.CommitmentConfirmed
	switch commitment {
	case "processed":
		c = rpc.CommitmentProcessed
	case "finalized":
		c = rpc.CommitmentFinalized
	}
	return &RPCClient{rpc: rpc.New(endpoint), commitment: c}
}

func (c *RPCClient) Balance(ctx context.Context, address string) (uint64, error) {
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", address, err)
	}
	out, err := c.rpc.GetBalance(ctx, pubKey, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("getBalance failed: %w", err)
	}
	return out.Value, nil
}

func (c *RPCClient) RecentSignatures(ctx context.Context, address string, limit int) ([]string, error) {
	pubKey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	out, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, pubKey,
		&rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: c.commitment,
		})
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress failed: %w", err)
	}

	sigs := make([]string, 0, len(out))
	for _, s := range out {
		sigs = append(sigs, s.Signature.String())
	}
	return sigs, nil
}

func (c *RPCClient) TransactionDelta(ctx context.Context, signature string) (string, uint64, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return "", 0, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     c.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return "", 0, fmt.Errorf("getTransaction failed: %w", err)
	}
	if out == nil || out.Meta == nil || out.Transaction == nil {
		return "", 0, fmt.Errorf("transaction %s has no metadata", signature)
	}
	if len(out.Meta.PreBalances) == 0 || len(out.Meta.PostBalances) == 0 {
		return "", 0, fmt.Errorf("transaction %s has no balance data", signature)
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return "", 0, fmt.Errorf("decode transaction %s: %w", signature, err)
	}
	if len(tx.Message.AccountKeys) == 0 {
		return "", 0, fmt.Errorf("transaction %s has no account keys", signature)
	}

	payer := tx.Message.AccountKeys[0].String()
	pre := out.Meta.PreBalances[0]
	post := out.Meta.PostBalances[0]

	var delta uint64
	if pre > post {
		delta = pre - post
	} else {
		delta = post - pre
	}
	return payer, delta, nil
}

var _ Client = (*RPCClient)(nil)
