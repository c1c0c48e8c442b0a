// Package harness runs YAML scenarios against a live ledger.
//
// # Scenario Format
//
//	name: alice_and_bob
//	description: "What this scenario validates"
//	accounts:
//	  admin: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
//	  alice: "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
//	deployment:
//	  deployer: admin
//	  base_uri: "https://api.example.com"
//	setup:
//	  - op: issue
//	    caller: admin
//	flow:
//	  - op: mint
//	    caller: alice
//	    args: { account: alice, token_id: 0, amount: 1 }
//	    expect:
//	      status: ok
//	      events: [Mint]
//	assertions:
//	  - type: event_count
//	    kind: Mint
//	    count: 1
//	  - type: query
//	    query: balance
//	    args: { account: alice, token_id: 0 }
//	    expect: 1
//
// Account aliases declared under accounts may be used wherever an address
// is expected: callers, deployment addresses, address arguments, query
// arguments and event fields.
//
// # Assertion Types
//
//   - event_contains: an event of kind whose fields include the given ones
//   - event_order: event kinds appear in the given order, gaps allowed
//   - event_count: exactly count events of kind
//   - query: a registry query returns expect, or fails with code
//
// # Determinism
//
// Every scenario runs on a fresh in-memory journal with a fixed deployment
// id, so traces are reproducible and compared against golden files.
package harness
