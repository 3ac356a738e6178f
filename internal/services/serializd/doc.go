// Package serializd wraps the Serializd REST API: session login, show and
// season lookups, the user's diary, and the episode logging endpoints the
// import pipeline writes through. Writes are paced against a configurable
// delay and retried on transient failures.
package serializd
