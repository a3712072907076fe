// Package cache implements the disk-backed store for raw dictionary replies.
// Each word maps to one file named after the word directly under the cache
// root; the store bounds the number of entries and evicts the least recently
// accessed file(s) before every write. An empty root disables the cache and
// turns reads and writes into successful no-ops, so callers can always fall
// back to fetching the reply again.
package cache
