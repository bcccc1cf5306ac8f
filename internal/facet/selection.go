package facet

import (
	"slices"
	"strings"
)

// Selection maps attributes to the selected value IDs.
type Selection map[Attribute][]string

// ParseSelection decodes the URL filter parameter
// "author:A|B,category:X". Pairs without a key or without values are
// dropped; repeated keys accumulate.
func ParseSelection(param string) Selection {
	sel := Selection{}
	for _, pair := range strings.Split(param, ",") {
		idx := strings.Index(pair, ":")
		if idx <= 0 {
			continue
		}
		key := Attribute(strings.TrimSpace(pair[:idx]))
		if key == "" {
			continue
		}
		for _, v := range strings.Split(pair[idx+1:], "|") {
			if v = strings.TrimSpace(v); v != "" && !slices.Contains(sel[key], v) {
				sel[key] = append(sel[key], v)
			}
		}
	}
	for k, v := range sel {
		if len(v) == 0 {
			delete(sel, k)
		}
	}
	return sel
}

// String encodes the selection in the URL form accepted by ParseSelection.
func (s Selection) String() string {
	var parts []string
	for _, attr := range s.Attributes() {
		if len(s[attr]) == 0 {
			continue
		}
		parts = append(parts, string(attr)+":"+strings.Join(s[attr], "|"))
	}
	return strings.Join(parts, ",")
}

// Attributes returns the selected attributes in sidebar order, followed
// by any other attributes sorted by name.
func (s Selection) Attributes() []Attribute {
	out := make([]Attribute, 0, len(s))
	for _, attr := range Attributes {
		if _, ok := s[attr]; ok {
			out = append(out, attr)
		}
	}
	var unknown []Attribute
	for attr := range s {
		if !slices.Contains(Attributes, attr) {
			unknown = append(unknown, attr)
		}
	}
	slices.Sort(unknown)
	return append(out, unknown...)
}

// Active reports whether any attribute has a selected value.
func (s Selection) Active() bool {
	for _, ids := range s {
		if len(ids) > 0 {
			return true
		}
	}
	return false
}

// Has reports whether attr has a selected value.
func (s Selection) Has(attr Attribute) bool {
	return len(s[attr]) > 0
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = slices.Clone(v)
	}
	return out
}

// Toggle returns a copy with id added to attr, or removed when present.
func (s Selection) Toggle(attr Attribute, id string) Selection {
	out := s.Clone()
	if out == nil {
		out = Selection{}
	}
	if i := slices.Index(out[attr], id); i >= 0 {
		out[attr] = slices.Delete(out[attr], i, i+1)
		if len(out[attr]) == 0 {
			delete(out, attr)
		}
		return out
	}
	out[attr] = append(out[attr], id)
	return out
}
