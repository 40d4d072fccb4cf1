package converters

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/client"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/data"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/hcl"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/terraform"
	yaml2 "github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/yaml"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/sanitizer"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/strutil"
	"github.com/hashicorp/hcl2/gohcl"
	"github.com/hashicorp/hcl2/hclwrite"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const gocdPipelineResourceType = "gocd_pipeline"
const gocdPipelineStageResourceType = "gocd_pipeline_stage"
const pipelineAdminPath = "/api/admin/pipelines"
const pipelinesResourceType = "Pipelines"

type PipelineConverter struct {
	Client                     client.GoCDClient
	ServerUrl                  string
	MaxConcurrency             int
	ErrGroup                   *errgroup.Group
	Excluder                   ExcludeByName
	ExcludeAllPipelines        bool
	ExcludePipelines           []string
	ExcludePipelinesRegex      []string
	ExcludePipelinesExcept     []string
	ExcludeConfigRepoResources bool
}

func (c PipelineConverter) GetResourceType() string {
	return pipelinesResourceType
}

func (c PipelineConverter) AllToHcl(ctx context.Context, dependencies *data.ResourceDetailsCollection) {
	c.ErrGroup.Go(func() error {
		return c.forEachPipeline(ctx, func(pipeline *gocd.Pipeline) error {
			return c.toHcl(pipeline, dependencies)
		})
	})
}

func (c PipelineConverter) ToHclByName(ctx context.Context, name string, dependencies *data.ResourceDetailsCollection) error {
	if name == "" {
		return nil
	}

	if dependencies.HasResource(name, c.GetResourceType()) {
		return nil
	}

	pipeline, err := c.getPipeline(ctx, name)

	if err != nil || pipeline == nil {
		return err
	}

	return c.toHcl(pipeline, dependencies)
}

// AllToYaml adds the pipelines to the document in the order the server lists them.
func (c PipelineConverter) AllToYaml(ctx context.Context, document *yaml2.ConfigRepo) error {
	return c.forEachPipeline(ctx, func(pipeline *gocd.Pipeline) error {
		document.Pipelines.Set(pipeline.Name, c.toYaml(pipeline))
		return nil
	})
}

func (c PipelineConverter) ToYamlByName(ctx context.Context, name string, document *yaml2.ConfigRepo) error {
	if _, found := document.Pipelines.Get(name); found || name == "" {
		return nil
	}

	pipeline, err := c.getPipeline(ctx, name)

	if err != nil || pipeline == nil {
		return err
	}

	document.Pipelines.Set(pipeline.Name, c.toYaml(pipeline))
	return nil
}

// getPipeline returns nil when the pipeline is excluded or no longer exists.
func (c PipelineConverter) getPipeline(ctx context.Context, name string) (*gocd.Pipeline, error) {
	if c.isExcluded(name) {
		return nil, nil
	}

	pipeline, exists, err := c.Client.GetPipelineConfig(ctx, name)

	if err != nil {
		return nil, err
	}

	if !exists {
		zap.L().Warn("Pipeline " + name + " was not found")
		return nil, nil
	}

	if c.Excluder.IsOriginExcluded(pipeline.Origin, c.ExcludeConfigRepoResources) {
		return nil, nil
	}

	zap.L().Info("Pipeline: " + pipeline.Name)
	return pipeline, nil
}

func (c PipelineConverter) isExcluded(name string) bool {
	return c.Excluder.IsResourceExcludedWithRegex(name, c.ExcludeAllPipelines, c.ExcludePipelines, c.ExcludePipelinesRegex, c.ExcludePipelinesExcept)
}

// forEachPipeline reads the configs of every pipeline that is not excluded, in server order.
func (c PipelineConverter) forEachPipeline(ctx context.Context, process func(pipeline *gocd.Pipeline) error) error {
	structure, err := c.Client.GetPipelineStructure(ctx)

	if err != nil {
		return err
	}

	names := lo.FilterMap(structure.Pipelines(), func(item gocd.PipelineReference, index int) (string, bool) {
		return item.Name, !c.isExcluded(item.Name)
	})

	batchClient := client.BatchingGoCDApiClient{
		Client:    c.Client,
		BatchSize: c.MaxConcurrency,
	}

	done := make(chan struct{})
	defer close(done)

	for result := range batchClient.GetPipelineConfigsBatch(ctx, done, names) {
		if result.Err != nil {
			return result.Err
		}

		if c.Excluder.IsOriginExcluded(result.Res.Origin, c.ExcludeConfigRepoResources) {
			continue
		}

		zap.L().Info("Pipeline: " + result.Res.Name)

		if err := process(result.Res); err != nil {
			return err
		}
	}

	return nil
}

func (c PipelineConverter) toHcl(pipeline *gocd.Pipeline, dependencies *data.ResourceDetailsCollection) error {
	resourceName := "pipeline_" + sanitizer.SanitizeName(pipeline.Name)

	thisResource := data.ResourceDetails{}
	thisResource.Name = pipeline.Name
	thisResource.FileName = "pipelines/" + resourceName + ".tf"
	thisResource.ResourceType = c.GetResourceType()
	thisResource.Lookup = gocdPipelineResourceType + "." + resourceName + ".name"
	thisResource.ToHcl = func() (string, error) {
		file := hclwrite.NewEmptyFile()
		file.Body().AppendUnstructuredTokens(hcl.WriteImportComments(c.ServerUrl, pipelineAdminPath, pipeline.Name, gocdPipelineResourceType, resourceName))

		if pipeline.IsDefinedInConfigRepo() {
			file.Body().AppendUnstructuredTokens(hcl.WriteOriginComment(pipeline.Origin.String()))
		}

		block := gohcl.EncodeAsBlock(c.buildPipeline(pipeline, resourceName), "resource")
		c.writeMaterials(block, pipeline, dependencies)
		file.Body().AppendBlock(block)

		for _, stage := range pipeline.Stages {
			stageBlock, err := c.buildStageBlock(stage, resourceName)

			if err != nil {
				return "", fmt.Errorf("failed to export stage %s of pipeline %s: %w", stage.Name, pipeline.Name, err)
			}

			file.Body().AppendBlock(stageBlock)
		}

		return string(file.Bytes()), nil
	}

	dependencies.AddResource(thisResource)
	return nil
}

func (c PipelineConverter) buildPipeline(pipeline *gocd.Pipeline, resourceName string) terraform.TerraformPipeline {
	terraformResource := terraform.TerraformPipeline{
		Type:                 gocdPipelineResourceType,
		Name:                 resourceName,
		ResourceName:         pipeline.Name,
		Group:                strutil.NilIfEmpty(pipeline.Group),
		LabelTemplate:        pipeline.LabelTemplate,
		LockBehavior:         pipeline.LockBehavior,
		Template:             strutil.NilIfEmpty(pipeline.Template),
		EnvironmentVariables: toTerraformVariables(pipeline.EnvironmentVariables, true),
	}

	if len(pipeline.Parameters) != 0 {
		parameters := lo.SliceToMap(pipeline.Parameters, func(item *gocd.Parameter) (string, string) {
			return item.Name, item.Value
		})
		terraformResource.Parameters = &parameters
	}

	if pipeline.TrackingTool != nil {
		terraformResource.TrackingTool = &terraform.TerraformTrackingTool{
			UrlPattern: pipeline.TrackingTool.Attributes.UrlPattern,
			Regex:      pipeline.TrackingTool.Attributes.Regex,
		}
	}

	if pipeline.Timer != nil {
		terraformResource.Timer = &terraform.TerraformTimer{
			Spec:          pipeline.Timer.Spec,
			OnlyOnChanges: pipeline.Timer.OnlyOnChanges,
		}
	}

	return terraformResource
}

func (c PipelineConverter) buildMaterial(material *gocd.Material) terraform.TerraformMaterial {
	attributes := terraform.TerraformMaterialAttributes{
		Name: strutil.NilIfEmpty(material.Attributes.Common().Name),
	}

	switch typed := material.Attributes.(type) {
	case *gocd.GitMaterial:
		c.buildScm(&attributes, &typed.ScmMaterial)
		attributes.Url = &typed.Url
		attributes.Branch = &typed.Branch
		attributes.ShallowClone = &typed.ShallowClone
		attributes.SubmoduleFolder = strutil.NilIfEmpty(typed.SubmoduleFolder)
	case *gocd.SvnMaterial:
		c.buildScm(&attributes, &typed.ScmMaterial)
		attributes.Url = &typed.Url
		attributes.CheckExternals = &typed.CheckExternals
	case *gocd.MercurialMaterial:
		c.buildScm(&attributes, &typed.ScmMaterial)
		attributes.Url = &typed.Url
		attributes.Branch = strutil.NilIfEmpty(typed.Branch)
	case *gocd.PerforceMaterial:
		c.buildScm(&attributes, &typed.ScmMaterial)
		attributes.Port = &typed.Port
		attributes.UseTickets = &typed.UseTickets
		attributes.View = &typed.View
	case *gocd.TfsMaterial:
		c.buildScm(&attributes, &typed.ScmMaterial)
		attributes.Url = &typed.Url
		attributes.Domain = strutil.NilIfEmpty(typed.Domain)
		attributes.ProjectPath = &typed.ProjectPath
	case *gocd.DependencyMaterial:
		attributes.Pipeline = &typed.Pipeline
		attributes.Stage = &typed.Stage
		attributes.AutoUpdate = &typed.AutoUpdate
		attributes.IgnoreForScheduling = &typed.IgnoreForScheduling
	case *gocd.PackageMaterial:
		attributes.Ref = &typed.Ref
	case *gocd.PluginMaterial:
		attributes.Ref = &typed.Ref
		attributes.Filter = filterPointer(typed.Filter)
		attributes.InvertFilter = &typed.InvertFilter
		attributes.Destination = strutil.NilIfEmpty(typed.Destination)
	}

	return terraform.TerraformMaterial{
		Type:       material.Type,
		Attributes: attributes,
	}
}

func (c PipelineConverter) buildScm(attributes *terraform.TerraformMaterialAttributes, scm *gocd.ScmMaterial) {
	attributes.AutoUpdate = &scm.AutoUpdate
	attributes.Filter = filterPointer(scm.Filter)
	attributes.InvertFilter = &scm.InvertFilter
	attributes.Destination = strutil.NilIfEmpty(scm.Destination)
	attributes.Username = strutil.NilIfEmpty(scm.Username)
	attributes.EncryptedPassword = scm.EncryptedPassword
}

func filterPointer(filter *gocd.Filter) *[]string {
	if filter == nil || len(filter.Ignore) == 0 {
		return nil
	}

	return &filter.Ignore
}

// writeMaterials appends a materials block for each material. Dependency materials whose upstream pipeline is
// part of the same export reference it, so Terraform creates it first.
func (c PipelineConverter) writeMaterials(block *hclwrite.Block, pipeline *gocd.Pipeline, dependencies *data.ResourceDetailsCollection) {
	for _, material := range pipeline.Materials {
		if material == nil {
			continue
		}

		materialBlock := gohcl.EncodeAsBlock(c.buildMaterial(material), "materials")

		if dependency, ok := material.Attributes.(*gocd.DependencyMaterial); ok {
			if lookup := dependencies.GetResource(c.GetResourceType(), dependency.Pipeline); lookup != "" {
				for _, attributesBlock := range materialBlock.Body().Blocks() {
					hcl.WriteUnquotedAttribute(attributesBlock, "pipeline", lookup)
				}
			}
		}

		block.Body().AppendBlock(materialBlock)
	}
}

func (c PipelineConverter) buildStageBlock(stage *gocd.Stage, pipelineResourceName string) (*hclwrite.Block, error) {
	terraformResource := terraform.TerraformPipelineStage{
		Type:                  gocdPipelineStageResourceType,
		Name:                  pipelineResourceName + "_" + sanitizer.SanitizeName(stage.Name),
		ResourceName:          stage.Name,
		Pipeline:              gocdPipelineResourceType + "." + pipelineResourceName + ".name",
		FetchMaterials:        stage.FetchMaterials,
		CleanWorkingDirectory: stage.CleanWorkingDirectory,
		NeverCleanupArtifacts: stage.NeverCleanupArtifacts,
		ManualApproval:        stage.Approval.IsManual(),
		EnvironmentVariables:  toTerraformVariables(stage.EnvironmentVariables, true),
	}

	if stage.Approval != nil {
		terraformResource.AllowOnlyOnSuccess = stage.Approval.AllowOnlyOnSuccess

		if authorization := stage.Approval.Authorization; authorization != nil {
			if len(authorization.Users) != 0 {
				terraformResource.AuthorizationUsers = &authorization.Users
			}

			if len(authorization.Roles) != 0 {
				terraformResource.AuthorizationRoles = &authorization.Roles
			}
		}
	}

	jobs := []string{}
	for _, job := range stage.Jobs {
		jobJson, err := json.Marshal(job)

		if err != nil {
			return nil, err
		}

		jobs = append(jobs, string(jobJson))
	}

	block := gohcl.EncodeAsBlock(terraformResource, "resource")
	hcl.WriteUnquotedAttribute(block, "pipeline", terraformResource.Pipeline)
	hcl.WriteJsonEncodedList(block, "jobs", jobs)

	return block, nil
}
