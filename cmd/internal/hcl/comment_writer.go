package hcl

import (
	"github.com/hashicorp/hcl2/hcl/hclsyntax"
	"github.com/hashicorp/hcl2/hclwrite"
	"net/url"
)

// WriteImportComments writes the commands that confirm a resource exists on the server and import it into the
// Terraform state. GoCD resources are imported by name.
func WriteImportComments(baseUrl string, resourcePath string, resourceName string, tfResourceType string, tfResourceName string) []*hclwrite.Token {
	return []*hclwrite.Token{{
		Type: hclsyntax.TokenComment,
		Bytes: []byte("# Import existing resources with the following commands:\n" +
			"# curl -u \"${GOCD_USERNAME}:${GOCD_PASSWORD}\" -H \"Accept: application/vnd.go.cd+json\" " + baseUrl + resourcePath + "/" + url.PathEscape(resourceName) + "\n" +
			"# terraform import " + tfResourceType + "." + tfResourceName + " \"" + resourceName + "\"\n"),
		SpacesBefore: 0,
	}}
}

// WriteOriginComment notes that a resource was exported from a config repository, which means the server will
// refuse to manage it through the admin API.
func WriteOriginComment(origin string) []*hclwrite.Token {
	return []*hclwrite.Token{{
		Type:         hclsyntax.TokenComment,
		Bytes:        []byte("# This resource is defined in " + origin + "\n"),
		SpacesBefore: 0,
	}}
}
