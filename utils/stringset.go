package utils

import "strings"

// UniqueList is an insertion-ordered list of strings with
// case-insensitive uniqueness. It replaces the ad-hoc
// grow-and-strcat buffers previously duplicated by the format
// and identifier list builders.
type UniqueList struct {
	seen   map[string]bool
	values []string
}

func NewUniqueList() *UniqueList {
	return &UniqueList{seen: make(map[string]bool)}
}

// Add appends value unless an entry equal under case folding is
// already present. It reports whether the value was added.
func (u *UniqueList) Add(value string) bool {
	key := strings.ToLower(value)
	if u.seen[key] {
		return false
	}
	u.seen[key] = true
	u.values = append(u.values, value)
	return true
}

func (u *UniqueList) Len() int {
	return len(u.values)
}

// Values returns the entries in first-seen order.
func (u *UniqueList) Values() []string {
	return u.values
}

func (u *UniqueList) Join(sep string) string {
	return strings.Join(u.values, sep)
}
