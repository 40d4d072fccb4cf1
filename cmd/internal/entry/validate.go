package entry

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/args"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/client"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/converters"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"strconv"
)

const validationReportFileName = "validation_report.json"

// ValidationReport lists the invalid environments and pipelines, keyed by name.
type ValidationReport struct {
	Valid        bool                         `json:"valid"`
	Environments map[string]validation.Report `json:"environments"`
	Pipelines    map[string]validation.Report `json:"pipelines"`
}

// ValidateResources validates the environments and pipelines that would be exported, and returns the
// report as the only generated file.
func ValidateResources(ctx context.Context, gocdClient client.GoCDClient, parseArgs args.Arguments) (map[string]string, error) {
	report, err := BuildValidationReport(ctx, gocdClient, parseArgs)

	if err != nil {
		return nil, err
	}

	content, err := json.MarshalIndent(report, "", "  ")

	if err != nil {
		return nil, err
	}

	if report.Valid {
		zap.L().Info("All environments and pipelines are valid")
	} else {
		zap.L().Warn(strconv.Itoa(len(report.Environments)) + " environment(s) and " + strconv.Itoa(len(report.Pipelines)) + " pipeline(s) are invalid")
	}

	return map[string]string{validationReportFileName: string(content)}, nil
}

func BuildValidationReport(ctx context.Context, gocdClient client.GoCDClient, parseArgs args.Arguments) (ValidationReport, error) {
	report := ValidationReport{
		Environments: map[string]validation.Report{},
		Pipelines:    map[string]validation.Report{},
	}

	excluder := converters.DefaultExcluder{}

	environments, err := gocdClient.GetMergedEnvironments(ctx)

	if err != nil {
		return ValidationReport{}, err
	}

	environments = lo.Filter(environments, func(item *gocd.Environment, index int) bool {
		if len(parseArgs.Environments) != 0 && !slices.Contains(parseArgs.Environments, item.Name) {
			return false
		}

		return !excluder.IsResourceExcludedWithRegex(item.Name, parseArgs.ExcludeAllEnvironments, parseArgs.ExcludeEnvironments, parseArgs.ExcludeEnvironmentsRegex, parseArgs.ExcludeEnvironmentsExcept)
	})

	for _, environment := range environments {
		environmentReport := validation.Report{}
		environment.CollectErrors("", environmentReport)

		if !environmentReport.IsEmpty() {
			report.Environments[environment.Name] = environmentReport
		}
	}

	structure, err := gocdClient.GetPipelineStructure(ctx)

	if err != nil {
		return ValidationReport{}, err
	}

	names := lo.FilterMap(structure.Pipelines(), func(item gocd.PipelineReference, index int) (string, bool) {
		if len(parseArgs.Environments) != 0 && !lo.ContainsBy(environments, func(environment *gocd.Environment) bool {
			return environment.ContainsPipeline(item.Name)
		}) {
			return item.Name, false
		}

		return item.Name, !excluder.IsResourceExcludedWithRegex(item.Name, parseArgs.ExcludeAllPipelines, parseArgs.ExcludePipelines, parseArgs.ExcludePipelinesRegex, parseArgs.ExcludePipelinesExcept)
	})

	batchClient := client.BatchingGoCDApiClient{
		Client:    gocdClient,
		BatchSize: parseArgs.MaxConcurrency,
	}

	done := make(chan struct{})
	defer close(done)

	for result := range batchClient.GetPipelineConfigsBatch(ctx, done, names) {
		if result.Err != nil {
			return ValidationReport{}, result.Err
		}

		pipelineReport := result.Res.ValidateAll()
		validateUpstreamMaterials(result.Res, structure, pipelineReport)

		if parseArgs.TestMaterials {
			if err := testMaterialConnections(ctx, gocdClient, result.Res, pipelineReport); err != nil {
				return ValidationReport{}, err
			}
		}

		if !pipelineReport.IsEmpty() {
			report.Pipelines[result.Res.Name] = pipelineReport
		}
	}

	report.Valid = len(report.Environments) == 0 && len(report.Pipelines) == 0
	return report, nil
}

// validateUpstreamMaterials reports dependency materials whose upstream pipeline or stage does not exist.
func validateUpstreamMaterials(pipeline *gocd.Pipeline, structure gocd.PipelineStructure, report validation.Report) {
	for index, material := range pipeline.Materials {
		if material == nil {
			continue
		}

		dependency, ok := material.Attributes.(*gocd.DependencyMaterial)

		if !ok || dependency.Pipeline == "" || dependency.Stage == "" {
			continue
		}

		if !structure.HasStage(dependency.Pipeline, dependency.Stage) {
			report.Add(validation.Path(validation.Index("", "materials", index), "stage"),
				fmt.Sprintf("Stage '%s' of pipeline '%s' does not exist", dependency.Stage, dependency.Pipeline))
		}
	}
}

// testMaterialConnections asks the server to check out each source control material and reports the ones that
// can not be reached.
func testMaterialConnections(ctx context.Context, gocdClient client.GoCDClient, pipeline *gocd.Pipeline, report validation.Report) error {
	for index, material := range pipeline.Materials {
		if material == nil || !material.IsScm() {
			continue
		}

		result, err := gocdClient.TestMaterialConnection(ctx, material, pipeline.Name)

		if err != nil {
			return err
		}

		if !result.Success {
			zap.L().Warn("Material " + material.DisplayName() + " of pipeline " + pipeline.Name + " failed the connection check: " + result.Message)
			report.Add(validation.Index("", "materials", index), result.Message)
		}
	}

	return nil
}
