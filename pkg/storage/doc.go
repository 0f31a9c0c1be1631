// Package storage defines the repository interfaces backing the arena
// service: user accounts, provider configurations, and the append-only
// completion log. Implementations live in the memory and postgres
// sub-packages.
package storage
