package holiday

// Filter narrows a holiday list by audience and type. Zero values disable a criterion.
type Filter struct {
	Audience string
	Type     Type
}

// IsZero reports whether the filter lets everything through
func (f Filter) IsZero() bool {
	return f.Audience == "" && f.Type == 0
}

// Match reports whether a single holiday passes the filter
func (f Filter) Match(h Holiday) bool {
	if f.Audience != "" && !h.IsUniversal() && !h.HasAudience(f.Audience) {
		return false
	}
	if f.Type != 0 && h.Type != f.Type {
		return false
	}
	return true
}

// Apply returns the holidays that pass the filter, preserving input order
func (f Filter) Apply(holidays []Holiday) []Holiday {
	if f.IsZero() {
		return holidays
	}

	out := make([]Holiday, 0, len(holidays))
	for _, h := range holidays {
		if f.Match(h) {
			out = append(out, h)
		}
	}
	return out
}
