// Package importer orchestrates one import run: parse the source, filter by
// profile and exclusions, resolve show identities, collapse viewing bursts,
// gate each event against the existing diary, and perform the writes. Every
// input event ends up in the report with an outcome; only structural and
// configuration failures abort a run.
package importer
