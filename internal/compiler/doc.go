// Package compiler turns magic shelves authored in CUE into book.MagicShelf
// records whose FilterJSON is the canonical rule tree.
//
// A shelf is a struct under the top-level "shelf" field, labelled by name:
//
//	shelf: "Unread Dune": {
//		icon: "pi pi-book"
//		join: "and"
//		rules: [
//			{field: "readStatus", operator: "equals", value: "UNREAD"},
//			{join: "or", rules: [
//				{field: "title", operator: "contains", value: "dune"},
//				{field: "seriesName", operator: "equals", value: "Dune"},
//			]},
//		]
//	}
//
// An element of rules with its own rules list is a nested group. join
// defaults to "and". Structural problems are CompileErrors carrying the
// CUE source position; configuration problems (unknown fields, illegal
// operators) compile fine and are reported by Validate.
package compiler
