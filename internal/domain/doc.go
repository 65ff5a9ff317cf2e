// Package domain holds the core entities of the training platform and the
// repository interfaces the persistence layer implements. It has no
// dependencies on HTTP, Postgres, or Redis.
package domain
