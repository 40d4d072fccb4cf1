package converters

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	yaml2 "github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/yaml"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/strutil"
	"github.com/samber/lo"
	"strconv"
)

func (c PipelineConverter) toYaml(pipeline *gocd.Pipeline) *yaml2.Pipeline {
	result := &yaml2.Pipeline{
		Group:         pipeline.Group,
		LabelTemplate: pipeline.LabelTemplate,
		LockBehavior:  pipeline.LockBehavior,
		Template:      pipeline.Template,
	}

	for _, parameter := range pipeline.Parameters {
		result.Parameters.Set(parameter.Name, parameter.Value)
	}

	result.EnvironmentVariables, result.SecureVariables = toYamlVariables(pipeline.EnvironmentVariables)

	if pipeline.TrackingTool != nil {
		result.TrackingTool = &yaml2.TrackingTool{
			Link:  pipeline.TrackingTool.Attributes.UrlPattern,
			Regex: pipeline.TrackingTool.Attributes.Regex,
		}
	}

	if pipeline.Timer != nil {
		result.Timer = &yaml2.Timer{
			Spec:          pipeline.Timer.Spec,
			OnlyOnChanges: pipeline.Timer.OnlyOnChanges,
		}
	}

	for index, material := range pipeline.Materials {
		result.Materials.Set(materialKey(&result.Materials, material, index), materialToYaml(material))
	}

	result.Stages = lo.Map(pipeline.Stages, func(item *gocd.Stage, index int) map[string]*yaml2.Stage {
		return map[string]*yaml2.Stage{item.Name: stageToYaml(item)}
	})

	return result
}

// materialKey names a material in the materials map. Unnamed materials are keyed by their type, with the
// index appended when the type is already used.
func materialKey(materials *yaml2.OrderedMap[*yaml2.Material], material *gocd.Material, index int) string {
	key := material.Attributes.Common().Name

	if key == "" {
		if dependency, ok := material.Attributes.(*gocd.DependencyMaterial); ok {
			key = dependency.Pipeline
		} else {
			key = material.Type
		}
	}

	if _, found := materials.Get(key); found {
		key = key + "_" + strconv.Itoa(index)
	}

	return key
}

func materialToYaml(material *gocd.Material) *yaml2.Material {
	result := &yaml2.Material{}

	switch typed := material.Attributes.(type) {
	case *gocd.GitMaterial:
		scmToYaml(result, &typed.ScmMaterial)
		result.Git = typed.Url
		result.Branch = typed.Branch
		result.ShallowClone = typed.ShallowClone
	case *gocd.SvnMaterial:
		scmToYaml(result, &typed.ScmMaterial)
		result.Svn = typed.Url
		result.CheckExternals = typed.CheckExternals
	case *gocd.MercurialMaterial:
		scmToYaml(result, &typed.ScmMaterial)
		result.Hg = typed.Url
		result.Branch = typed.Branch
	case *gocd.PerforceMaterial:
		scmToYaml(result, &typed.ScmMaterial)
		result.P4 = typed.Port
		result.UseTickets = typed.UseTickets
		result.View = typed.View
	case *gocd.TfsMaterial:
		scmToYaml(result, &typed.ScmMaterial)
		result.Tfs = typed.Url
		result.Domain = typed.Domain
		result.Project = typed.ProjectPath
	case *gocd.DependencyMaterial:
		result.Pipeline = typed.Pipeline
		result.Stage = typed.Stage
		result.IgnoreForScheduling = typed.IgnoreForScheduling
	case *gocd.PackageMaterial:
		result.Package = typed.Ref
	case *gocd.PluginMaterial:
		result.Scm = typed.Ref
		result.Destination = typed.Destination
		filterToYaml(result, typed.Filter, typed.InvertFilter)
	}

	return result
}

func scmToYaml(result *yaml2.Material, scm *gocd.ScmMaterial) {
	if !scm.AutoUpdate {
		result.AutoUpdate = lo.ToPtr(false)
	}

	result.Destination = scm.Destination
	result.Username = scm.Username
	result.EncryptedPassword = strutil.EmptyIfNil(scm.EncryptedPassword)
	filterToYaml(result, scm.Filter, scm.InvertFilter)
}

// filterToYaml writes an inverted filter as an allow list.
func filterToYaml(result *yaml2.Material, filter *gocd.Filter, invert bool) {
	if filter == nil || len(filter.Ignore) == 0 {
		return
	}

	if invert {
		result.Includes = filter.Ignore
	} else {
		result.Ignore = filter.Ignore
	}
}

func stageToYaml(stage *gocd.Stage) *yaml2.Stage {
	result := &yaml2.Stage{
		CleanWorkspace: stage.CleanWorkingDirectory,
		KeepArtifacts:  stage.NeverCleanupArtifacts,
	}

	if !stage.FetchMaterials {
		result.FetchMaterials = lo.ToPtr(false)
	}

	if approval := stage.Approval; approval != nil && (approval.IsManual() || approval.AllowOnlyOnSuccess || approval.Authorization != nil) {
		result.Approval = &yaml2.Approval{
			Type:               approval.Type,
			AllowOnlyOnSuccess: approval.AllowOnlyOnSuccess,
		}

		if approval.Authorization != nil {
			result.Approval.Users = approval.Authorization.Users
			result.Approval.Roles = approval.Authorization.Roles
		}
	}

	result.EnvironmentVariables, result.SecureVariables = toYamlVariables(stage.EnvironmentVariables)

	for _, job := range stage.Jobs {
		result.Jobs.Set(job.Name, jobToYaml(job))
	}

	return result
}

func jobToYaml(job *gocd.Job) *yaml2.Job {
	result := &yaml2.Job{
		ElasticProfileId: job.ElasticProfileId,
		Resources:        job.Resources,
	}

	switch {
	case job.Timeout.Never:
		result.Timeout = "never"
	case job.Timeout.Set || job.Timeout.Minutes != 0:
		result.Timeout = job.Timeout.Minutes
	}

	switch {
	case job.RunInstanceCount.All:
		result.RunInstances = "all"
	case job.RunInstanceCount.Set || job.RunInstanceCount.Count != 0:
		result.RunInstances = job.RunInstanceCount.Count
	}

	result.EnvironmentVariables, result.SecureVariables = toYamlVariables(job.EnvironmentVariables)

	for _, tab := range job.Tabs {
		result.Tabs.Set(tab.Name, tab.Path)
	}

	result.Artifacts = lo.Map(job.Artifacts, func(item *gocd.Artifact, index int) map[string]yaml2.Artifact {
		return map[string]yaml2.Artifact{item.Type: artifactToYaml(item)}
	})

	result.Tasks = lo.Map(job.Tasks, func(item *gocd.Task, index int) map[string]*yaml2.Task {
		return taskToYaml(item)
	})

	return result
}

func artifactToYaml(artifact *gocd.Artifact) yaml2.Artifact {
	if artifact.Type != gocd.ArtifactTypeExternal {
		return yaml2.Artifact{
			Source:      artifact.Source,
			Destination: artifact.Destination,
		}
	}

	result := yaml2.Artifact{
		Id:      artifact.ArtifactId,
		StoreId: artifact.StoreId,
	}

	if len(artifact.Configuration) != 0 {
		options, secureOptions := toYamlOptions(artifact.Configuration)
		result.Configuration = &yaml2.PluginOptions{Options: options, SecureOptions: secureOptions}
	}

	return result
}

// taskToYaml wraps the task in a map keyed by the task type used in config repositories.
func taskToYaml(task *gocd.Task) map[string]*yaml2.Task {
	result := &yaml2.Task{}
	key := task.Type

	switch typed := task.Attributes.(type) {
	case *gocd.AntTask:
		buildTaskToYaml(result, &typed.BuildTask)
	case *gocd.NantTask:
		buildTaskToYaml(result, &typed.BuildTask)
		result.NantPath = typed.NantPath
	case *gocd.RakeTask:
		buildTaskToYaml(result, &typed.BuildTask)
	case *gocd.ExecTask:
		result.Command = typed.Command
		result.Arguments = typed.CommandLine()
		result.WorkingDirectory = typed.WorkingDirectory
	case *gocd.FetchTask:
		result.Pipeline = typed.Pipeline
		result.Stage = typed.Stage
		result.Job = typed.Job
		result.Source = typed.Source
		result.IsFile = typed.IsSourceAFile
		result.Destination = typed.Destination

		if typed.ArtifactOrigin != gocd.OriginGoCD {
			result.ArtifactOrigin = typed.ArtifactOrigin
		}
	case *gocd.PluginTask:
		key = "plugin"
		result.Configuration = &yaml2.PluginOptions{
			Id:      typed.PluginConfiguration.Id,
			Version: typed.PluginConfiguration.Version,
		}
		result.Options, result.SecureOptions = toYamlOptions(typed.Configuration)
	}

	common := task.Attributes.Common()

	switch {
	case len(common.RunIf) > 1:
		result.RunIf = gocd.RunIfAny
	case len(common.RunIf) == 1 && common.RunIf[0] != gocd.RunIfPassed:
		result.RunIf = common.RunIf[0]
	}

	if common.OnCancel != nil {
		result.OnCancel = taskToYaml(common.OnCancel)
	}

	return map[string]*yaml2.Task{key: result}
}

func buildTaskToYaml(result *yaml2.Task, task *gocd.BuildTask) {
	result.BuildFile = task.BuildFile
	result.Target = task.Target
	result.WorkingDirectory = task.WorkingDirectory
}

func toYamlOptions(properties []gocd.ConfigurationProperty) (yaml2.OrderedMap[string], yaml2.OrderedMap[string]) {
	options := yaml2.OrderedMap[string]{}
	secureOptions := yaml2.OrderedMap[string]{}

	for _, property := range properties {
		if property.EncryptedValue != nil {
			secureOptions.Set(property.Key, *property.EncryptedValue)
		} else {
			options.Set(property.Key, strutil.EmptyIfNil(property.Value))
		}
	}

	return options, secureOptions
}
