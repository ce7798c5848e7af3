// Package testutil provides deterministic helpers for tests: a seeded RNG
// and generators for random and near-duplicate embedding vectors.
package testutil
