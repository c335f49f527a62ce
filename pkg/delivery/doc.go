// Package delivery holds rendered artifacts behind single-use, expiring
// download tokens.
//
// # Lifecycle
//
// Each (token, format) pair is an independent entry:
//
//	Active ──redeem──▶ Consumed
//	   │
//	   └──expiry──▶ Expired
//
// Redeem checks, in order: unknown pair (NotFound), already consumed
// (Consumed), now >= ExpiresAt (Expired). Otherwise it marks the entry
// consumed and returns the bytes; the payload is released at that moment.
//
// # Sweeping
//
// Sweep releases the payload of every entry past its expiry, consumed or
// not, but keeps a byte-free tombstone until ExpiresAt + Retention so that
// late downloads still get a precise Expired or Consumed answer. After the
// retention window the tombstone is purged and Redeem reports NotFound.
//
// # Backends
//
// [MemoryStore] serves single-process deployments and tests. The redis,
// sqlite and mongo subpackages persist entries in shared stores; each makes
// the consumed-state transition atomic in its own way. Backends are
// addressable only by (token, format); none can enumerate tokens.
package delivery
