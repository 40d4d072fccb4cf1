package validation

import (
	"encoding/json"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Errors is the error bag attached to a single model. Messages are keyed by the wire (snake_case) field name
// and keep the order they were added in.
type Errors struct {
	messages map[string][]string
	fields   []string
}

func NewErrors() *Errors {
	return &Errors{}
}

// FromServer builds an error bag from the "errors" object the server returns on a failed save.
func FromServer(serverErrors map[string][]string) *Errors {
	errs := NewErrors()

	keys := lo.Keys(serverErrors)
	slices.Sort(keys)

	for _, key := range keys {
		errs.AddAll(key, serverErrors[key])
	}

	return errs
}

func (e *Errors) Add(field string, message string) {
	if e.messages == nil {
		e.messages = map[string][]string{}
	}

	if _, ok := e.messages[field]; !ok {
		e.fields = append(e.fields, field)
	}

	if slices.Contains(e.messages[field], message) {
		return
	}

	e.messages[field] = append(e.messages[field], message)
}

func (e *Errors) AddAll(field string, messages []string) {
	for _, message := range messages {
		e.Add(field, message)
	}
}

// Errors returns the messages recorded against field, or nil.
func (e *Errors) Errors(field string) []string {
	if e == nil || e.messages == nil {
		return nil
	}

	return e.messages[field]
}

func (e *Errors) HasErrors(field string) bool {
	return len(e.Errors(field)) != 0
}

func (e *Errors) IsEmpty() bool {
	return e == nil || len(e.fields) == 0
}

func (e *Errors) Clear() {
	e.messages = nil
	e.fields = nil
}

// Fields returns the fields with errors in insertion order.
func (e *Errors) Fields() []string {
	if e == nil {
		return nil
	}

	return slices.Clone(e.fields)
}

func (e *Errors) ToMap() map[string][]string {
	result := map[string][]string{}
	if e == nil {
		return result
	}

	for _, field := range e.fields {
		result[field] = slices.Clone(e.messages[field])
	}

	return result
}

func (e *Errors) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToMap())
}
