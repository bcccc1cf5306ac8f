// Package browser keeps a browse view's result current.
//
// A View owns one query.State. Changes (scope, sort, search term, facet
// selection, join mode, series preference, and repository events) are
// queued and applied by a single Run goroutine, which recomputes the
// pipeline once per batch and publishes the newest Result. Changes that
// arrive while a run is in progress coalesce into the next run, so the
// latest input always wins and no stale result is published after a
// newer one.
package browser
