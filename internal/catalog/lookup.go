package catalog

import (
	"github.com/antzucaro/matchr"
)

// Closest returns the row whose cpu name is most similar to `name`, exact
// matches win outright. ok is false when `rows` is empty.
func Closest(rows []Row, name string) (row Row, similarity float64, ok bool) {
	for _, r := range rows {
		if r.CPU == name {
			return r, 1, true
		}
	}

	for _, r := range rows {
		s := matchr.JaroWinkler(name, r.CPU, false)
		if !ok || s > similarity {
			row = r
			similarity = s
			ok = true
		}
	}
	return row, similarity, ok
}
