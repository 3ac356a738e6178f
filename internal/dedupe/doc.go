// Package dedupe collapses bursts of near-duplicate viewings of the same
// episode into the single viewing that should be logged. It is pure: the
// window scan never queries the diary or mutates its input.
package dedupe
