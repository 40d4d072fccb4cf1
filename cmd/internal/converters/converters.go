package converters

import (
	"context"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/data"
	yaml2 "github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/yaml"
)

// ConverterAll converts every resource of a type. The conversion is scheduled on the converter's errgroup,
// and the caller waits on the group before processing the dependencies.
type ConverterAll interface {
	AllToHcl(ctx context.Context, dependencies *data.ResourceDetailsCollection)
}

// ConverterByName converts an individual resource by its name. This is used when converting a single
// environment, and then converting the pipelines it references.
type ConverterByName interface {
	ToHclByName(ctx context.Context, name string, dependencies *data.ResourceDetailsCollection) error
}

// ConverterToYaml adds resources to a config repository document rather than generating HCL.
type ConverterToYaml interface {
	AllToYaml(ctx context.Context, document *yaml2.ConfigRepo) error
}

// ConverterAllAndByName converts all resources or individual ones.
type ConverterAllAndByName interface {
	ConverterAll
	ConverterByName
	ConverterToYaml
}

// ConverterToYamlByName adds an individual resource to a config repository document.
type ConverterToYamlByName interface {
	ToYamlByName(ctx context.Context, name string, document *yaml2.ConfigRepo) error
}

// ConverterByNameWithYaml converts individual resources to HCL or YAML. Environments use it to export
// the pipelines associated with them.
type ConverterByNameWithYaml interface {
	ConverterByName
	ConverterToYamlByName
}
