// Package store provides SQLite-backed storage for the book collection.
//
// The store holds:
//   - Libraries and shelves: named containers referenced by books
//   - Books: scalar columns plus the descriptive metadata as a JSON document
//   - Book shelves: shelf membership, one row per (book, shelf)
//   - Magic shelves: named rule trees stored as opaque JSON documents
//   - Sort preferences: per entity and global
//   - Settings: small key/value user preferences
//
// Rule trees are never translated to SQL. The store only checks that a
// tree parses and has at least one usable rule before saving it; books
// are matched in memory by the rule package.
//
// # Deterministic Reads
//
// Every list query orders by id, so snapshots are stable across calls
// and across process restarts.
//
// # Change Notifications
//
// Subscribe returns a channel of Change values. A change is published
// after its transaction commits, never before.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
