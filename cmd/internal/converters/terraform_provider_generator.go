package converters

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/data"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/hcl"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/terraform"
	"github.com/hashicorp/hcl2/gohcl"
	"github.com/hashicorp/hcl2/hclwrite"
)

const terraformConfigResourceType = "TerraformConfig"

// TerraformProviderGenerator writes the provider, required_providers and variable blocks shared by every
// exported resource.
type TerraformProviderGenerator struct {
	TerraformBackend string
	ProviderVersion  string
	ExcludeProvider  bool
	ServerUrl        string
}

func (c TerraformProviderGenerator) ToHcl(dependencies *data.ResourceDetailsCollection) {
	c.createProvider(dependencies)
	c.createTerraformConfig(dependencies)
	c.createVariables(dependencies)
}

func (c TerraformProviderGenerator) createProvider(dependencies *data.ResourceDetailsCollection) {
	if c.ExcludeProvider {
		return
	}

	thisResource := data.ResourceDetails{}
	thisResource.FileName = "provider.tf"
	thisResource.Name = thisResource.FileName
	thisResource.ResourceType = terraformConfigResourceType
	thisResource.ToHcl = func() (string, error) {
		file := hclwrite.NewEmptyFile()
		block := gohcl.EncodeAsBlock(terraform.TerraformProvider{Type: "gocd"}, "provider")
		hcl.WriteUnquotedAttribute(block, "baseurl", "var.gocd_url")
		hcl.WriteUnquotedAttribute(block, "username", "var.gocd_username")
		hcl.WriteUnquotedAttribute(block, "password", "var.gocd_password")
		file.Body().AppendBlock(block)

		return string(file.Bytes()), nil
	}
	dependencies.AddResource(thisResource)
}

func (c TerraformProviderGenerator) createTerraformConfig(dependencies *data.ResourceDetailsCollection) {
	// When creating a module, we need to define the required providers, but not the backend
	backend := ""
	if !c.ExcludeProvider {
		backend = c.TerraformBackend
	}

	thisResource := data.ResourceDetails{}
	thisResource.FileName = "config.tf"
	thisResource.Name = thisResource.FileName
	thisResource.ResourceType = terraformConfigResourceType
	thisResource.ToHcl = func() (string, error) {
		terraformResource := terraform.TerraformConfig{}.CreateTerraformConfig(backend, c.ProviderVersion)
		file := hclwrite.NewEmptyFile()
		file.Body().AppendBlock(gohcl.EncodeAsBlock(terraformResource, "terraform"))
		return string(file.Bytes()), nil
	}
	dependencies.AddResource(thisResource)
}

func (c TerraformProviderGenerator) createVariables(dependencies *data.ResourceDetailsCollection) {
	if c.ExcludeProvider {
		return
	}

	thisResource := data.ResourceDetails{}
	thisResource.FileName = "provider_vars.tf"
	thisResource.Name = thisResource.FileName
	thisResource.ResourceType = terraformConfigResourceType
	thisResource.ToHcl = func() (string, error) {
		file := hclwrite.NewEmptyFile()

		for _, variable := range terraform.ProviderVariables(c.ServerUrl) {
			file.Body().AppendBlock(hcl.EncodeTerraformVariable(variable))
		}

		return string(file.Bytes()), nil
	}
	dependencies.AddResource(thisResource)
}
