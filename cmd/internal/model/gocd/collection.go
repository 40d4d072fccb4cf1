package gocd

import (
	"encoding/json"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// EmbeddedCollection is the HAL envelope the server wraps lists in, e.g. {"_embedded": {"environments": [...]}}.
type EmbeddedCollection[T any] struct {
	Embedded map[string][]T `json:"_embedded"`
}

// Items returns the embedded items. The envelope only ever holds one list.
func (c EmbeddedCollection[T]) Items() []T {
	keys := lo.Keys(c.Embedded)
	slices.Sort(keys)

	return lo.FlatMap(keys, func(key string, index int) []T {
		return c.Embedded[key]
	})
}

// ErrorResponse is the body of a failed request. Data holds the rejected entity, including its "errors"
// objects, when the failure was a validation error.
type ErrorResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MessageResponse is the body of a successful request that has no entity to return, such as a delete.
type MessageResponse struct {
	Message string `json:"message"`
}
