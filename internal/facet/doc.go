// Package facet derives filter facets from a book collection and applies
// facet selections back to it.
//
// A facet is an attribute (author, rating band, file size band, ...) with
// the list of values present in a collection and how many books carry
// each value. Counts are always computed over the scope subset handed to
// Derive; narrowing by search or other facets is the caller's concern.
//
// Apply combines selections the way the sidebar does: values selected
// within one attribute are alternatives (OR), and attributes are combined
// with the configured join (AND or OR).
package facet
