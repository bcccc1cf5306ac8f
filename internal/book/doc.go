// Package book defines the record types the query engine operates on.
//
// This package contains type definitions and small accessors only. Every
// other internal package imports book; book imports nothing internal.
//
// Key constraints:
//   - Books are value records; engine stages never mutate an input slice
//   - Optional numeric and date metadata is carried as pointers (nil = absent)
//   - All JSON and YAML tags use snake_case
package book
