package hcl

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/terraform"
	"github.com/hashicorp/hcl2/gohcl"
	"github.com/hashicorp/hcl2/hclwrite"
)

func EncodeTerraformVariable(variable terraform.TerraformVariable) *hclwrite.Block {
	block := gohcl.EncodeAsBlock(variable, "variable")
	WriteUnquotedAttribute(block, "type", variable.Type)
	return block
}
