package gocd

import (
	"encoding/json"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"golang.org/x/exp/slices"
)

// Validatable is embedded in every model. ServerErrors holds the "errors" object returned by the server
// when a save is rejected; it seeds the error bag until the model is validated locally.
type Validatable struct {
	ServerErrors map[string][]string `json:"errors,omitempty"`
	errs         *validation.Errors
}

func (v *Validatable) Errors() *validation.Errors {
	if v.errs == nil {
		v.errs = validation.FromServer(v.ServerErrors)
	}

	return v.errs
}

// resetErrors clears local and server errors before a validation pass.
func (v *Validatable) resetErrors() *validation.Errors {
	v.ServerErrors = nil
	v.errs = validation.NewErrors()
	return v.errs
}

// mergeServerErrors adds errors reported outside the model's own JSON object, such as the errors the server
// places next to the type of a task or material.
func (v *Validatable) mergeServerErrors(serverErrors map[string][]string) {
	for field, messages := range serverErrors {
		if v.ServerErrors == nil {
			v.ServerErrors = map[string][]string{}
		}

		for _, message := range messages {
			if !slices.Contains(v.ServerErrors[field], message) {
				v.ServerErrors[field] = append(v.ServerErrors[field], message)
			}
		}
	}

	v.errs = nil
}

// marshalAttributes writes the attributes of a task or material without their server errors, which belong at
// the top level of the wire object.
func marshalAttributes(attributes any, v *Validatable) (json.RawMessage, map[string][]string, error) {
	data, err := json.Marshal(attributes)

	if err != nil || len(v.ServerErrors) == 0 {
		return data, nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, err
	}

	delete(fields, "errors")

	data, err = json.Marshal(fields)
	return data, v.ServerErrors, err
}
