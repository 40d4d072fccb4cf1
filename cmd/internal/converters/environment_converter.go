package converters

import (
	"context"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/client"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/data"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/hcl"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/terraform"
	yaml2 "github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/yaml"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/sanitizer"
	"github.com/hashicorp/hcl2/gohcl"
	"github.com/hashicorp/hcl2/hclwrite"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"strings"
)

const gocdEnvironmentResourceType = "gocd_environment"
const gocdEnvironmentAssociationResourceType = "gocd_environment_association"
const environmentAdminPath = "/api/admin/environments"

type EnvironmentConverter struct {
	Client    client.GoCDClient
	ServerUrl string
	ErrGroup  *errgroup.Group
	// PipelineConverter exports the pipelines associated with an environment exported by name
	PipelineConverter          ConverterByNameWithYaml
	Excluder                   ExcludeByName
	ExcludeAllEnvironments     bool
	ExcludeEnvironments        []string
	ExcludeEnvironmentsRegex   []string
	ExcludeEnvironmentsExcept  []string
	ExcludeConfigRepoResources bool
}

func (c EnvironmentConverter) GetResourceType() string {
	return "Environments"
}

func (c EnvironmentConverter) AllToHcl(ctx context.Context, dependencies *data.ResourceDetailsCollection) {
	c.ErrGroup.Go(func() error { return c.allToHcl(ctx, dependencies) })
}

func (c EnvironmentConverter) allToHcl(ctx context.Context, dependencies *data.ResourceDetailsCollection) error {
	environments, err := c.Client.GetMergedEnvironments(ctx)

	if err != nil {
		return err
	}

	for _, environment := range environments {
		if c.isExcluded(environment) {
			continue
		}

		zap.L().Info("Environment: " + environment.Name)
		c.toHcl(environment, dependencies)
	}

	return nil
}

// ToHclByName exports the environment and the pipelines associated with it.
func (c EnvironmentConverter) ToHclByName(ctx context.Context, name string, dependencies *data.ResourceDetailsCollection) error {
	if name == "" {
		return nil
	}

	if dependencies.HasResource(name, c.GetResourceType()) {
		return nil
	}

	environment, err := c.findEnvironment(ctx, name)

	if err != nil || environment == nil {
		return err
	}

	zap.L().Info("Environment: " + environment.Name)

	if c.PipelineConverter != nil {
		for _, pipeline := range environment.PipelineNames() {
			if err := c.PipelineConverter.ToHclByName(ctx, pipeline, dependencies); err != nil {
				return err
			}
		}
	}

	c.toHcl(environment, dependencies)
	return nil
}

func (c EnvironmentConverter) AllToYaml(ctx context.Context, document *yaml2.ConfigRepo) error {
	environments, err := c.Client.GetMergedEnvironments(ctx)

	if err != nil {
		return err
	}

	for _, environment := range environments {
		if c.isExcluded(environment) {
			continue
		}

		document.Environments.Set(environment.Name, c.toYaml(environment))
	}

	return nil
}

func (c EnvironmentConverter) ToYamlByName(ctx context.Context, name string, document *yaml2.ConfigRepo) error {
	environment, err := c.findEnvironment(ctx, name)

	if err != nil || environment == nil {
		return err
	}

	if c.PipelineConverter != nil {
		for _, pipeline := range environment.PipelineNames() {
			if err := c.PipelineConverter.ToYamlByName(ctx, pipeline, document); err != nil {
				return err
			}
		}
	}

	document.Environments.Set(environment.Name, c.toYaml(environment))
	return nil
}

// findEnvironment returns the merged view of the named environment, or nil if it is excluded or missing.
func (c EnvironmentConverter) findEnvironment(ctx context.Context, name string) (*gocd.Environment, error) {
	environments, err := c.Client.GetMergedEnvironments(ctx)

	if err != nil {
		return nil, err
	}

	environment, found := lo.Find(environments, func(item *gocd.Environment) bool {
		return item.Name == name
	})

	if !found {
		zap.L().Warn("Environment " + name + " was not found")
		return nil, nil
	}

	if c.isExcluded(environment) {
		return nil, nil
	}

	return environment, nil
}

// isExcluded drops environments filtered by name, and environments defined only in config repositories
// when those are excluded.
func (c EnvironmentConverter) isExcluded(environment *gocd.Environment) bool {
	if c.Excluder.IsResourceExcludedWithRegex(environment.Name, c.ExcludeAllEnvironments, c.ExcludeEnvironments, c.ExcludeEnvironmentsRegex, c.ExcludeEnvironmentsExcept) {
		return true
	}

	return len(environment.Origins) != 0 && lo.EveryBy(environment.Origins, func(item gocd.Origin) bool {
		return c.Excluder.IsOriginExcluded(&item, c.ExcludeConfigRepoResources)
	})
}

func (c EnvironmentConverter) toHcl(environment *gocd.Environment, dependencies *data.ResourceDetailsCollection) {
	resourceName := "environment_" + sanitizer.SanitizeName(environment.Name)

	thisResource := data.ResourceDetails{}
	thisResource.Name = environment.Name
	thisResource.FileName = "environments/" + resourceName + ".tf"
	thisResource.ResourceType = c.GetResourceType()
	thisResource.Lookup = gocdEnvironmentResourceType + "." + resourceName + ".name"
	thisResource.ToHcl = func() (string, error) {
		file := hclwrite.NewEmptyFile()
		file.Body().AppendUnstructuredTokens(hcl.WriteImportComments(c.ServerUrl, environmentAdminPath, environment.Name, gocdEnvironmentResourceType, resourceName))

		if environment.IsDefinedRemotely() {
			file.Body().AppendUnstructuredTokens(hcl.WriteOriginComment(c.remoteOrigins(environment)))
		}

		terraformResource := terraform.TerraformEnvironment{
			Type:                 gocdEnvironmentResourceType,
			Name:                 resourceName,
			ResourceName:         environment.Name,
			EnvironmentVariables: toTerraformVariables(environment.EnvironmentVariables, false),
		}

		agents := lo.FilterMap(environment.Agents, func(item gocd.EnvironmentAgent, index int) (string, bool) {
			return item.Uuid, item.Origin.IsLocal()
		})

		if len(agents) != 0 {
			terraformResource.Agents = &agents
		}

		file.Body().AppendBlock(gohcl.EncodeAsBlock(terraformResource, "resource"))

		for _, pipeline := range environment.Pipelines {
			if !pipeline.Origin.IsLocal() {
				continue
			}

			file.Body().AppendBlock(c.buildAssociation(resourceName, pipeline.Name, dependencies))
		}

		return string(file.Bytes()), nil
	}

	dependencies.AddResource(thisResource)
}

// buildAssociation links the pipeline by reference when it was exported too, and by name otherwise.
func (c EnvironmentConverter) buildAssociation(environmentResourceName string, pipeline string, dependencies *data.ResourceDetailsCollection) *hclwrite.Block {
	association := terraform.TerraformEnvironmentAssociation{
		Type:        gocdEnvironmentAssociationResourceType,
		Name:        environmentResourceName + "_" + sanitizer.SanitizeName(pipeline),
		Environment: gocdEnvironmentResourceType + "." + environmentResourceName + ".name",
		Pipeline:    pipeline,
	}

	block := gohcl.EncodeAsBlock(association, "resource")
	hcl.WriteUnquotedAttribute(block, "environment", association.Environment)

	if lookup := dependencies.GetResource(pipelinesResourceType, pipeline); lookup != "" {
		hcl.WriteUnquotedAttribute(block, "pipeline", lookup)
	}

	return block
}

func (c EnvironmentConverter) remoteOrigins(environment *gocd.Environment) string {
	origins := lo.FilterMap(environment.Origins, func(item gocd.Origin, index int) (string, bool) {
		return item.String(), item.IsDefinedInConfigRepo()
	})

	return strings.Join(origins, ", ")
}

func (c EnvironmentConverter) toYaml(environment *gocd.Environment) *yaml2.Environment {
	result := &yaml2.Environment{
		Agents:    environment.AgentUuids(),
		Pipelines: environment.PipelineNames(),
	}

	result.EnvironmentVariables, result.SecureVariables = toYamlVariables(environment.EnvironmentVariables)

	return result
}
