// Package tmdb provides the minimal TMDB API client used during show
// resolution.
//
// It authenticates requests and exposes TV search with strongly typed
// responses so the resolver can rank candidates. Options allow tests to supply
// custom HTTP clients without modifying production code.
package tmdb
