package sorting

// Preference is a stored sort choice.
type Preference struct {
	SortKey   string    `json:"sort_key" yaml:"sort_key"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Preferences are the stored choices that apply to one view: an override
// for the entity being browsed (library, shelf, magic shelf) and the
// user's global choice. Either may be nil.
type Preferences struct {
	Entity *Preference
	Global *Preference
}

// Resolve picks the ordering for a view. Precedence:
//  1. the entity preference
//  2. the global preference
//  3. the sort/direction URL parameters
//  4. Default (addedOn, descending)
//
// A level naming an unknown field is skipped. URL direction defaults to
// ascending when absent or unrecognised.
func Resolve(prefs Preferences, urlSort, urlDirection string) Option {
	for _, p := range []*Preference{prefs.Entity, prefs.Global} {
		if p == nil {
			continue
		}
		dir, _ := ParseDirection(string(p.Direction))
		if opt, ok := Lookup(p.SortKey, dir); ok {
			return opt
		}
	}

	if urlSort != "" {
		dir, _ := ParseDirection(urlDirection)
		if opt, ok := Lookup(urlSort, dir); ok {
			return opt
		}
	}

	return Default
}
