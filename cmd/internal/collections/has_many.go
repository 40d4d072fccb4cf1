package collections

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"github.com/samber/lo"
	"reflect"
	"strings"
)

// NamedResource is any model that is identified by name within its parent collection.
// Names are compared case insensitively, as the server does.
type NamedResource interface {
	GetName() string
}

// Entity is a named model that carries its own error bag and can report the errors of its children.
type Entity interface {
	NamedResource
	Errors() *validation.Errors
	CollectErrors(prefix string, report validation.Report)
}

// HasMany is an ordered child collection, such as the stages of a pipeline or the jobs of a stage.
// A null in the JSON array is kept as a nil item; lookups skip it and validation reports it as missing.
type HasMany[T NamedResource] []T

// Add appends item. Items are added even when the name collides so the duplicate can be reported by validation.
func (h *HasMany[T]) Add(item T) {
	*h = append(*h, item)
}

// Remove deletes every item called name. Removing a missing name is a no-op.
func (h *HasMany[T]) Remove(name string) {
	*h = lo.Filter(*h, func(item T, index int) bool {
		return IsNil(item) || !sameName(item.GetName(), name)
	})
}

// Find returns the first item called name.
func (h HasMany[T]) Find(name string) (T, bool) {
	return lo.Find(h, func(item T) bool {
		return !IsNil(item) && sameName(item.GetName(), name)
	})
}

func (h HasMany[T]) Contains(name string) bool {
	_, found := h.Find(name)
	return found
}

func (h HasMany[T]) Names() []string {
	return lo.FilterMap(h, func(item T, index int) (string, bool) {
		if IsNil(item) {
			return "", false
		}

		return item.GetName(), true
	})
}

// DuplicateIndexes returns the positions of every item whose non blank name is shared with another item.
func (h HasMany[T]) DuplicateIndexes() []int {
	names := lo.Map(h, func(item T, index int) string {
		if IsNil(item) {
			return ""
		}

		return nameKey(item.GetName())
	})

	groups := lo.GroupBy(names, func(item string) string {
		return item
	})

	indexes := []int{}
	for i, key := range names {
		if key != "" && len(groups[key]) > 1 {
			indexes = append(indexes, i)
		}
	}

	return indexes
}

// ValidateUniqueness adds "Name is a duplicate" to every colliding member and returns their positions.
func ValidateUniqueness[T Entity](items HasMany[T]) []int {
	indexes := items.DuplicateIndexes()

	for _, i := range indexes {
		items[i].Errors().Add("name", validation.Duplicate("Name"))
	}

	return indexes
}

// CollectErrors validates each item, marks duplicates, and copies every message into report under
// prefix.collection[i].
func CollectErrors[T Entity](items HasMany[T], prefix string, collection string, report validation.Report) {
	for i, item := range items {
		if IsNil(item) {
			report.Add(validation.Index(prefix, collection, i), validation.MustBePresent(validation.HumanizeField(collection)+" item"))
			continue
		}

		item.CollectErrors(validation.Index(prefix, collection, i), report)
	}

	for _, i := range ValidateUniqueness(items) {
		report.Add(validation.Path(validation.Index(prefix, collection, i), "name"), validation.Duplicate("Name"))
	}
}

// IsNil is true for a nil interface and for a nil pointer, map or slice stored in one.
func IsNil[T any](item T) bool {
	value := reflect.ValueOf(item)

	switch value.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return value.IsNil()
	}

	return false
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sameName(a string, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
