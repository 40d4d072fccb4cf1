package entry

import (
	"context"
	"errors"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/args"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/client"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/collections"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/converters"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/data"
	yaml2 "github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/yaml"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"strings"
	"sync"
)

const configRepoFileName = "gocd.yaml"

// Entry takes the arguments, applies any environment edits, and then either validates the GoCD resources or
// exports them to HCL or YAML. The generated files are returned mapped to their file names.
func Entry(ctx context.Context, parseArgs args.Arguments) (map[string]string, error) {
	gocdClient := client.NewGoCDApiClient(parseArgs.Url, parseArgs.Username, parseArgs.Password, parseArgs.Token)
	return EntryWithClient(ctx, gocdClient, parseArgs)
}

// EntryWithClient is Entry with the API client supplied by the caller.
func EntryWithClient(ctx context.Context, gocdClient client.GoCDClient, parseArgs args.Arguments) (map[string]string, error) {
	if parseArgs.HasEnvironmentEdits() {
		if err := ApplyEnvironmentEdits(ctx, gocdClient, parseArgs); err != nil {
			return nil, err
		}

		if parseArgs.DeleteEnvironment {
			return map[string]string{}, nil
		}
	}

	if parseArgs.ValidateOnly {
		return ValidateResources(ctx, gocdClient, parseArgs)
	}

	if parseArgs.Format == args.FormatYaml {
		zap.L().Info("Exporting to a YAML config repository")
		return ConvertToYaml(ctx, gocdClient, parseArgs)
	}

	zap.L().Info("Exporting to Terraform")
	dependencies, err := ConvertToTerraform(ctx, gocdClient, parseArgs)

	if err != nil {
		return nil, err
	}

	return ProcessResources(dependencies.Resources)
}

func newPipelineConverter(gocdClient client.GoCDClient, parseArgs args.Arguments, group *errgroup.Group) converters.PipelineConverter {
	return converters.PipelineConverter{
		Client:                     gocdClient,
		ServerUrl:                  parseArgs.Url,
		MaxConcurrency:             parseArgs.MaxConcurrency,
		ErrGroup:                   group,
		Excluder:                   converters.DefaultExcluder{},
		ExcludeAllPipelines:        parseArgs.ExcludeAllPipelines,
		ExcludePipelines:           parseArgs.ExcludePipelines,
		ExcludePipelinesRegex:      parseArgs.ExcludePipelinesRegex,
		ExcludePipelinesExcept:     parseArgs.ExcludePipelinesExcept,
		ExcludeConfigRepoResources: parseArgs.ExcludeConfigRepoResources,
	}
}

func newEnvironmentConverter(gocdClient client.GoCDClient, parseArgs args.Arguments, group *errgroup.Group, pipelineConverter converters.ConverterByNameWithYaml) converters.EnvironmentConverter {
	return converters.EnvironmentConverter{
		Client:                     gocdClient,
		ServerUrl:                  parseArgs.Url,
		ErrGroup:                   group,
		PipelineConverter:          pipelineConverter,
		Excluder:                   converters.DefaultExcluder{},
		ExcludeAllEnvironments:     parseArgs.ExcludeAllEnvironments,
		ExcludeEnvironments:        parseArgs.ExcludeEnvironments,
		ExcludeEnvironmentsRegex:   parseArgs.ExcludeEnvironmentsRegex,
		ExcludeEnvironmentsExcept:  parseArgs.ExcludeEnvironmentsExcept,
		ExcludeConfigRepoResources: parseArgs.ExcludeConfigRepoResources,
	}
}

// ConvertToTerraform captures the environments and pipelines to export. When environments are selected, only
// they and the pipelines associated with them are exported.
func ConvertToTerraform(ctx context.Context, gocdClient client.GoCDClient, parseArgs args.Arguments) (*data.ResourceDetailsCollection, error) {
	group := errgroup.Group{}
	group.SetLimit(parseArgs.MaxConcurrency)

	dependencies := data.ResourceDetailsCollection{}

	pipelineConverter := newPipelineConverter(gocdClient, parseArgs, &group)
	environmentConverter := newEnvironmentConverter(gocdClient, parseArgs, &group, pipelineConverter)

	converters.TerraformProviderGenerator{
		TerraformBackend: parseArgs.BackendBlock,
		ProviderVersion:  parseArgs.ProviderVersion,
		ExcludeProvider:  parseArgs.ExcludeProvider,
		ServerUrl:        parseArgs.Url,
	}.ToHcl(&dependencies)

	if len(parseArgs.Environments) != 0 {
		zap.L().Info("Exporting environment(s) " + strings.Join(parseArgs.Environments, ", "))

		for _, name := range parseArgs.Environments {
			name := name
			group.Go(func() error {
				return environmentConverter.ToHclByName(ctx, name, &dependencies)
			})
		}
	} else {
		zap.L().Info("Exporting all environments and pipelines")
		environmentConverter.AllToHcl(ctx, &dependencies)
		pipelineConverter.AllToHcl(ctx, &dependencies)
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return &dependencies, nil
}

// ConvertToYaml builds a single config repository document holding the exported environments and pipelines.
func ConvertToYaml(ctx context.Context, gocdClient client.GoCDClient, parseArgs args.Arguments) (map[string]string, error) {
	document := yaml2.NewConfigRepo()

	pipelineConverter := newPipelineConverter(gocdClient, parseArgs, nil)
	environmentConverter := newEnvironmentConverter(gocdClient, parseArgs, nil, pipelineConverter)

	if len(parseArgs.Environments) != 0 {
		for _, name := range parseArgs.Environments {
			if err := environmentConverter.ToYamlByName(ctx, name, document); err != nil {
				return nil, err
			}
		}
	} else {
		if err := environmentConverter.AllToYaml(ctx, document); err != nil {
			return nil, err
		}

		if err := pipelineConverter.AllToYaml(ctx, document); err != nil {
			return nil, err
		}
	}

	content, err := document.Marshal()

	if err != nil {
		return nil, err
	}

	return map[string]string{configRepoFileName: content}, nil
}

func ProcessResources(resources []data.ResourceDetails) (map[string]string, error) {
	zap.L().Info("Generating HCL (this can take a little while)")
	defer zap.L().Info("Done Generating HCL")

	var wg sync.WaitGroup
	var fileMap sync.Map
	hclErrors := collections.SafeSlice[error]{}

	for _, r := range resources {
		if r.ToHcl == nil {
			continue
		}

		wg.Add(1)

		resource := r
		go func() {
			defer wg.Done()
			hcl, err := resource.ToHcl()

			if err != nil {
				hclErrors.Append(err)
			} else {
				if len(strings.TrimSpace(hcl)) != 0 {
					fileMap.Store(resource.FileName, hcl)
				}
			}
		}()
	}

	wg.Wait()
	if hclErrors.Len() != 0 {
		return nil, errors.Join(hclErrors.GetCopy()...)
	}

	result := map[string]string{}
	fileMap.Range(func(key, value interface{}) bool {
		result[key.(string)] = value.(string)
		return true
	})

	return result, nil
}
