package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed ids. The version suffix leaves room
// for algorithm migration.
const (
	DomainGenesis     = "engagement/genesis/v1"
	DomainTransaction = "engagement/tx/v1"
	DomainOutcome     = "engagement/outcome/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator removes domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GenesisHash identifies a deployment's genesis record.
func GenesisHash(g Genesis) (string, error) {
	canonical, err := MarshalCanonical(g.Object())
	if err != nil {
		return "", fmt.Errorf("GenesisHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGenesis, canonical), nil
}

// TransactionID computes the content-addressed id of a transaction. The
// genesis hash binds the id to one deployment; seq makes repeated
// identical submissions distinct.
func TransactionID(genesisHash string, seq uint64, op, caller string, args Object) (string, error) {
	if args == nil {
		args = Object{}
	}
	obj := Object{
		"genesis": String(genesisHash),
		"seq":     Uint(seq),
		"op":      String(op),
		"caller":  String(caller),
		"args":    args,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TransactionID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTransaction, canonical), nil
}

// OutcomeDigest hashes a transaction's outcome together with its events.
// Replay compares digests to prove determinism.
func OutcomeDigest(txID string, outcome Outcome, events []EventRecord) (string, error) {
	evs := make(Array, len(events))
	for i, e := range events {
		evs[i] = e.Object()
	}
	obj := Object{
		"tx_id":   String(txID),
		"outcome": outcome.Object(),
		"events":  evs,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("OutcomeDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainOutcome, canonical), nil
}

// MustTransactionID is like TransactionID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTransactionID(genesisHash string, seq uint64, op, caller string, args Object) string {
	id, err := TransactionID(genesisHash, seq, op, caller, args)
	if err != nil {
		panic(err)
	}
	return id
}
