package book

// Library is a root folder of books. Every book belongs to exactly one.
type Library struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Shelf is a user-curated collection with explicit membership.
type Shelf struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// MagicShelf is a named, persisted rule tree. Membership is computed by
// evaluating the tree against each book; FilterJSON is the tree in its
// stable JSON shape and is re-parsed on every use.
type MagicShelf struct {
	ID         int64  `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Icon       string `json:"icon,omitempty" yaml:"icon,omitempty"`
	FilterJSON string `json:"filter_json" yaml:"filter_json"`
}
