package content

import "time"

// Picker selects a daily item from a list without storing any rotation
// state. The same (day, offset, destination) always yields the same item,
// so broadcasts vary by day and by chat while staying reproducible.
type Picker struct {
	now func() time.Time
	loc *time.Location
}

func NewPicker(loc *time.Location) *Picker {
	return &Picker{
		now: time.Now,
		loc: loc,
	}
}

// Pick returns list[(dayOfYear + seedOffset + |destination|) mod len].
// An empty list yields an empty string. The index is forced non-negative
// even though destination is a signed chat ID.
func (p *Picker) Pick(list []string, seedOffset int, destination int64) string {
	n := len(list)
	if n == 0 {
		return ""
	}

	day := p.now().In(p.loc).YearDay()
	base := day + seedOffset + int(abs(destination))
	idx := ((base % n) + n) % n
	return list[idx]
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
