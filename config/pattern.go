package config

// Match resolves key against a mapping layer. An exact entry wins outright;
// otherwise every entry is tried as a regular expression (unanchored, so a
// partial match counts) and the last matching entry wins. Returns false for
// absent and scalar layers and when nothing matches.
//
// Matching is pure: patterns were compiled when the layer was built, and an
// invalid pattern simply never matches here.
func (l Layer) Match(key string) (interface{}, bool) {
	if l.kind != kindMapping {
		return nil, false
	}
	for _, e := range l.entries {
		if e.Pattern == key {
			return e.Value, true
		}
	}
	var value interface{}
	found := false
	for _, e := range l.entries {
		if e.re != nil && e.re.MatchString(key) {
			value = e.Value
			found = true
		}
	}
	return value, found
}
