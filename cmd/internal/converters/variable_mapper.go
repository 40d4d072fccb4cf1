package converters

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/terraform"
	yaml2 "github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/yaml"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/strutil"
	"github.com/samber/lo"
)

// toTerraformVariables maps the variables defined on the server. Variables from config repositories are
// skipped unless includeRemote is set, as the admin API refuses to manage them.
func toTerraformVariables(variables gocd.EnvironmentVariables, includeRemote bool) []terraform.TerraformEnvironmentVariable {
	return lo.FilterMap(variables, func(item *gocd.EnvironmentVariable, index int) (terraform.TerraformEnvironmentVariable, bool) {
		if !includeRemote && !item.IsEditable() {
			return terraform.TerraformEnvironmentVariable{}, false
		}

		variable := terraform.TerraformEnvironmentVariable{
			Name:           item.Name,
			EncryptedValue: item.EncryptedValue,
			Secure:         item.Secure,
		}

		if item.EncryptedValue == nil {
			variable.Value = strutil.StrPointer(strutil.EmptyIfNil(item.Value))
		}

		return variable, true
	})
}

// toYamlVariables splits the variables into the plain and secure maps of a config repository document.
func toYamlVariables(variables gocd.EnvironmentVariables) (yaml2.OrderedMap[string], yaml2.OrderedMap[string]) {
	plain := yaml2.OrderedMap[string]{}
	secure := yaml2.OrderedMap[string]{}

	for _, variable := range variables {
		if variable.EncryptedValue != nil {
			secure.Set(variable.Name, *variable.EncryptedValue)
		} else {
			plain.Set(variable.Name, strutil.EmptyIfNil(variable.Value))
		}
	}

	return plain, secure
}
