// Package merge decides how each deduplicated viewing event interacts with
// the diary entries already present on the tracker: create, merge alongside,
// skip, or drop. The policy is what makes repeated imports of the same
// export file idempotent.
package merge
