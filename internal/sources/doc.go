// Package sources turns raw viewing-history exports into normalized viewing
// events. Each source (Netflix activity CSV, Plex library database, free-form
// episode CSV) has its own parser; all of them drop movies and log malformed
// rows instead of failing the whole read.
package sources
