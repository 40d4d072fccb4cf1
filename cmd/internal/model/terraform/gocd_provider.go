package terraform

import "github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/strutil"

const DefaultProviderSource = "beamly/gocd"
const DefaultProviderVersion = "1.4.0"

type TerraformConfig struct {
	RequiredProviders RequiredProviders `hcl:"required_providers,block"`
	Backend           *Backend          `hcl:"backend,block"`
}

type Backend struct {
	Type string `hcl:"type,label"`
}

type RequiredProviders struct {
	GoCDProvider GoCDProvider `hcl:"gocd"`
}

type GoCDProvider struct {
	Source  string `cty:"source"`
	Version string `cty:"version"`
}

// TerraformProvider is the provider block. The attributes are written as references to the variables in
// ProviderVariables, so they are excluded from the struct encoding.
type TerraformProvider struct {
	Type string `hcl:"type,label"`
}

type TerraformVariable struct {
	Name        string  `hcl:"name,label"`
	Type        string  `hcl:"type"`
	Nullable    bool    `hcl:"nullable"`
	Sensitive   bool    `hcl:"sensitive"`
	Description string  `hcl:"description"`
	Default     *string `hcl:"default"`
}

func (c TerraformConfig) CreateTerraformConfig(backend string, version string) TerraformConfig {
	config := TerraformConfig{
		RequiredProviders: RequiredProviders{
			GoCDProvider: GoCDProvider{
				Source:  DefaultProviderSource,
				Version: strutil.DefaultIfEmpty(version, DefaultProviderVersion),
			},
		},
	}

	if backend != "" {
		config.Backend = &Backend{Type: backend}
	}

	return config
}

// ProviderVariables are the variables the provider block is configured from.
func ProviderVariables(serverUrl string) []TerraformVariable {
	return []TerraformVariable{
		{
			Name:        "gocd_url",
			Type:        "string",
			Description: "The base URL of the GoCD server, including the /go context path",
			Default:     strutil.NilIfEmpty(serverUrl),
		},
		{
			Name:        "gocd_username",
			Type:        "string",
			Nullable:    true,
			Description: "The GoCD username",
		},
		{
			Name:        "gocd_password",
			Type:        "string",
			Nullable:    true,
			Sensitive:   true,
			Description: "The GoCD password or access token",
		},
	}
}
