// Package harness runs browsing scenarios end to end.
//
// A scenario is a YAML file describing a small collection (libraries,
// shelves, magic shelves, books, stored sort preferences) and a sequence
// of browse steps. Each scenario runs against a fresh in-memory store
// with a fixed result token, so the output is deterministic:
//
//	name: magic_shelf_scope
//	description: A magic shelf selects finished books
//	magic_shelves:
//	  - id: 1
//	    name: Finished
//	    filter_json: '{"type":"group","join":"and","rules":[...]}'
//	books:
//	  - {id: 1, library_id: 1, read_status: READ, metadata: {title: Alpha}}
//	steps:
//	  - name: browse shelf
//	    scope: magic:1
//	    expect:
//	      books: [1]
//
// Steps are cumulative: each starts from the state the previous step left.
// Expectations are checked by the harness; RunWithGolden additionally
// compares a text rendering of every step against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
