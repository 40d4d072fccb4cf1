package validation

import (
	"fmt"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"strings"
)

// Report flattens the error bags of an object graph. Keys are dotted paths such as "stages[0].jobs[1].name".
type Report map[string][]string

// Path joins a prefix and a field name.
func Path(prefix string, field string) string {
	if prefix == "" {
		return field
	}

	return prefix + "." + field
}

// Index builds the path of an item in a nested collection.
func Index(prefix string, collection string, index int) string {
	return fmt.Sprintf("%s[%d]", Path(prefix, collection), index)
}

// Collect copies every message in errs into the report under prefix.
func (r Report) Collect(prefix string, errs *Errors) {
	for _, field := range errs.Fields() {
		for _, message := range errs.Errors(field) {
			r.Add(Path(prefix, field), message)
		}
	}
}

func (r Report) Add(path string, message string) {
	if slices.Contains(r[path], message) {
		return
	}

	r[path] = append(r[path], message)
}

func (r Report) IsEmpty() bool {
	return len(r) == 0
}

// Paths returns the sorted error paths.
func (r Report) Paths() []string {
	paths := lo.Keys(r)
	slices.Sort(paths)
	return paths
}

// String lists every message as "path: message" in path order.
func (r Report) String() string {
	return strings.Join(lo.FlatMap(r.Paths(), func(path string, index int) []string {
		return lo.Map(r[path], func(message string, index int) string {
			return path + ": " + message
		})
	}), "\n")
}
