package cmd

import "slices"

// cycleFilter tracks the values seen in a stream and cycles through them as
// a display filter.
type cycleFilter struct {
	values []string
	active string // "" means show all
}

func (f *cycleFilter) cycle() {
	if len(f.values) == 0 {
		return
	}
	if f.active == "" {
		f.active = f.values[0]
		return
	}
	if i := slices.Index(f.values, f.active); i >= 0 && i+1 < len(f.values) {
		f.active = f.values[i+1]
		return
	}
	f.active = "" // back to all
}

func (f *cycleFilter) track(value string) {
	if value == "" || slices.Contains(f.values, value) {
		return
	}
	f.values = append(f.values, value)
}
