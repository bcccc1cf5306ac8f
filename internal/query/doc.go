// Package query runs the browse pipeline over a book collection.
//
// A run takes a snapshot of the collection and an immutable State and
// applies, in order:
//
//  1. Scope: all books, unshelved, one library, one shelf or one magic shelf
//  2. Sort: the resolved sort option, ties broken by id
//  3. Text search over title, subtitle, series and authors
//  4. Facet filter: the sidebar selection combined with the join mode
//  5. Series collapse: one representative per series
//
// Facet counts are derived from the scope subset only, so selecting a
// sidebar value or typing a search term never changes the counts shown.
//
// Runs hold no state between calls apart from the scope selector's magic
// shelf cache. Every Result carries a fresh Token; callers that schedule
// runs concurrently keep the newest result and drop the rest.
package query
