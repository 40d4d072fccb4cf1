package gocd

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/collections"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
)

// EnvironmentVariable holds either a clear text value or an encrypted value, never both.
type EnvironmentVariable struct {
	Validatable
	Name           string  `json:"name"`
	Value          *string `json:"value,omitempty"`
	EncryptedValue *string `json:"encrypted_value,omitempty"`
	Secure         bool    `json:"secure"`
	Origin         *Origin `json:"origin,omitempty"`
}

type EnvironmentVariables = collections.HasMany[*EnvironmentVariable]

func NewPlainVariable(name string, value string) *EnvironmentVariable {
	return &EnvironmentVariable{Name: name, Value: &value}
}

// NewSecureVariable creates a secure variable from a clear text value that the server will encrypt.
func NewSecureVariable(name string, value string) *EnvironmentVariable {
	return &EnvironmentVariable{Name: name, Value: &value, Secure: true}
}

func NewEncryptedVariable(name string, encryptedValue string) *EnvironmentVariable {
	return &EnvironmentVariable{Name: name, EncryptedValue: &encryptedValue, Secure: true}
}

func (v *EnvironmentVariable) GetName() string {
	return v.Name
}

// SetValue replaces the value with clear text, discarding any encrypted value.
func (v *EnvironmentVariable) SetValue(value string) {
	v.Value = &value
	v.EncryptedValue = nil
}

// SetEncryptedValue replaces the value with an encrypted one and marks the variable secure.
func (v *EnvironmentVariable) SetEncryptedValue(encryptedValue string) {
	v.EncryptedValue = &encryptedValue
	v.Value = nil
	v.Secure = true
}

func (v *EnvironmentVariable) IsEditable() bool {
	return !v.Origin.IsDefinedInConfigRepo()
}

func (v *EnvironmentVariable) Validate() *validation.Errors {
	errs := v.resetErrors()

	validation.Presence(errs, "name", v.Name)

	if v.Value != nil && v.EncryptedValue != nil {
		errs.Add("value", "Value and encrypted value can not both be set")
	}

	if v.EncryptedValue != nil && !v.Secure {
		errs.Add("secure", "Encrypted value can only be set on a secure variable")
	}

	return errs
}

func (v *EnvironmentVariable) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, v.Validate())
}
