// Package shortterm implements the TTL-bounded short-term memory tier.
//
// Every agent owns three buckets with distinct retention classes:
//
//   - normal: entries below the priority threshold, expiring after the base
//     retention period (default 30 minutes)
//   - prioritized: entries with importance >= 0.7, retained three times as
//     long
//   - coordination: inter-agent coordination messages, retained three times
//     as long
//
// Routing between normal and prioritized is decided solely by the entry's
// importance at store time. Entries with importance >= 0.9 are additionally
// copied onto a critical-backup shelf keyed by memory_id and retained for
// seven days, independent of the buckets' own expiry.
//
// A background sweeper drops expired entries once per sweep interval
// (default 60 seconds). Per-agent sweep failures are logged and skipped so
// one bad agent never aborts the whole pass. The sweeper is cancelled
// cooperatively: Close signals it and waits for loop exit.
package shortterm
