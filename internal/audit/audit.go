// Package audit keeps a local, immutable trail of finalized Stellar
// transactions.
//
// Each record is a verbatim copy of the facts Horizon reported at fetch
// time. Records are written exactly once; a re-fetch of an already-stored
// hash returns the existing record unchanged, and any later divergence
// between the stored copy and the live network is reported by Verify, not
// corrected.
//
// Two Store implementations are provided:
//   - MemoryStore: in-process, for testing and development.
//   - PostgresStore: durable, for production use.
package audit
