package hcl

import (
	"github.com/hashicorp/hcl2/hcl"
	"github.com/hashicorp/hcl2/hclwrite"
	"strings"
)

// WriteUnquotedAttribute uses the example from https://github.com/hashicorp/hcl/issues/442
// to add an unquoted attribute to a block
func WriteUnquotedAttribute(block *hclwrite.Block, attrName string, attrValue string) {
	block.Body().SetAttributeTraversal(attrName, hcl.Traversal{
		hcl.TraverseRoot{Name: attrValue},
	})
}

// WriteJsonEncodedList writes a list attribute whose items are jsonencode() calls wrapping the supplied JSON
// documents. JSON objects are valid HCL object constructors, so the documents are readable and editable in the
// generated file rather than being escaped strings.
func WriteJsonEncodedList(block *hclwrite.Block, attrName string, documents []string) {
	if len(documents) == 0 {
		WriteUnquotedAttribute(block, attrName, "[]")
		return
	}

	items := make([]string, len(documents))
	for i, document := range documents {
		items[i] = "\n    jsonencode(" + EscapeTemplates(document) + ")"
	}

	WriteUnquotedAttribute(block, attrName, "["+strings.Join(items, ",")+",\n  ]")
}

// EscapeTemplates escapes the template sequences HCL would otherwise interpolate in a quoted string. GoCD uses
// ${...} for its own parameters and label templates, which must reach the server unchanged.
func EscapeTemplates(value string) string {
	escaped := strings.ReplaceAll(value, "${", "$${")
	return strings.ReplaceAll(escaped, "%{", "%%{")
}

// IsInterpolation returns true if the entire string is a single HCL interpolation, like ${var.name}
func IsInterpolation(value string) bool {
	return strings.HasPrefix(value, "${") &&
		strings.HasSuffix(value, "}") &&
		strings.Count(value, "${") == 1 &&
		strings.Count(value, "}") == 1
}

// RemoveInterpolation returns the expression inside an interpolation, or the original string if it was not
// an interpolation.
func RemoveInterpolation(value string) string {
	if IsInterpolation(value) {
		return value[2 : len(value)-1]
	}

	return value
}
