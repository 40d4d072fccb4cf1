package entry

import (
	"context"
	"encoding/json"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/args"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/exp/slices"
	"regexp"
	"strings"
	"testing"
)

func sortedKeys(files map[string]string) []string {
	keys := lo.Keys(files)
	slices.Sort(keys)
	return keys
}

func TestEntryExportsEverythingToHcl(t *testing.T) {
	fake := newFakeGoCDServer(t)

	files, err := EntryWithClient(context.Background(), fake.client(), fake.args())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"config.tf",
		"environments/environment_prod.tf",
		"pipelines/pipeline_build.tf",
		"pipelines/pipeline_deploy.tf",
		"provider.tf",
		"provider_vars.tf",
	}

	if diff := cmp.Diff(expected, sortedKeys(files)); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}

	environment := files["environments/environment_prod.tf"]
	if !regexp.MustCompile(`pipeline\s+=\s+gocd_pipeline\.pipeline_build\.name`).MatchString(environment) {
		t.Fatalf("the association must reference the exported pipeline:\n%s", environment)
	}

	if !strings.Contains(environment, `"REGION"`) || !strings.Contains(environment, `"us-east-1"`) {
		t.Fatalf("the environment variable must be exported:\n%s", environment)
	}
}

func TestEntryExportsSelectedEnvironment(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Environments = args.StringSliceArgs{"prod"}

	files, err := EntryWithClient(context.Background(), fake.client(), parseArgs)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, found := files["pipelines/pipeline_build.tf"]; !found {
		t.Fatalf("the associated pipeline must be exported, got %v", sortedKeys(files))
	}

	if _, found := files["pipelines/pipeline_deploy.tf"]; found {
		t.Fatalf("a pipeline outside the selected environment must not be exported")
	}
}

func TestEntryExportsYaml(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Format = args.FormatYaml

	files, err := EntryWithClient(context.Background(), fake.client(), parseArgs)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{configRepoFileName}, sortedKeys(files)); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}

	document := files[configRepoFileName]
	for _, fragment := range []string{"format_version:", "environments:", "prod:", "pipelines:", "build:", "deploy:"} {
		if !strings.Contains(document, fragment) {
			t.Fatalf("the document must contain %q:\n%s", fragment, document)
		}
	}
}

func TestEntryValidateOnly(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.ValidateOnly = true

	files, err := EntryWithClient(context.Background(), fake.client(), parseArgs)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := ValidationReport{}
	if err := json.Unmarshal([]byte(files[validationReportFileName]), &report); err != nil {
		t.Fatalf("the report must be JSON: %v", err)
	}

	if report.Valid {
		t.Fatalf("the dependency on a missing stage must be reported")
	}

	expected := []string{"Stage 'package' of pipeline 'build' does not exist"}
	if diff := cmp.Diff(expected, report.Pipelines["deploy"]["materials[0].stage"]); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%s", diff)
	}

	if _, found := report.Pipelines["build"]; found {
		t.Fatalf("the build pipeline is valid")
	}
}

func TestEntryValidateOnlyTestsMaterials(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.ValidateOnly = true
	parseArgs.TestMaterials = true

	files, err := EntryWithClient(context.Background(), fake.client(), parseArgs)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	report := ValidationReport{}
	if err := json.Unmarshal([]byte(files[validationReportFileName]), &report); err != nil {
		t.Fatalf("the report must be JSON: %v", err)
	}

	// Dependency materials are not checked out.
	if diff := cmp.Diff([]string{"build/git"}, fake.materialTests); diff != "" {
		t.Fatalf("unexpected material tests (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"Failed to find 'git' on your PATH"}, report.Pipelines["build"]["materials[0]"]); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%s", diff)
	}
}

func TestEntryPatchesEnvironment(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Environments = args.StringSliceArgs{"prod"}
	parseArgs.AddPipelines = args.StringSliceArgs{"deploy"}
	parseArgs.RemovePipelines = args.StringSliceArgs{"build"}
	parseArgs.AddAgents = args.StringSliceArgs{"host1"}

	if _, err := EntryWithClient(context.Background(), fake.client(), parseArgs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.patches) != 1 {
		t.Fatalf("expected one patch, got %d", len(fake.patches))
	}

	patch := fake.patches[0]

	if diff := cmp.Diff(gocd.AddRemove{Add: []string{"deploy"}, Remove: []string{"build"}}, patch.Pipelines); diff != "" {
		t.Fatalf("unexpected pipelines (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(gocd.AddRemove{Add: []string{"agent-1"}, Remove: []string{}}, patch.Agents); diff != "" {
		t.Fatalf("unexpected agents (-want +got):\n%s", diff)
	}
}

func TestEntryWarnsWhenAddingDisabledAgent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Environments = args.StringSliceArgs{"prod"}
	parseArgs.AddAgents = args.StringSliceArgs{"host2"}

	if _, err := EntryWithClient(context.Background(), fake.client(), parseArgs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"agent-2"}, fake.patches[0].Agents.Add); diff != "" {
		t.Fatalf("a disabled agent is still added (-want +got):\n%s", diff)
	}

	if logs.FilterMessageSnippet("Agent host2 is Disabled").Len() != 1 {
		t.Fatalf("expected a warning about the disabled agent, got %v", logs.All())
	}
}

func TestEntryMatchesPipelineNamesCaseInsensitively(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Environments = args.StringSliceArgs{"prod"}
	parseArgs.AddPipelines = args.StringSliceArgs{"Deploy"}

	if _, err := EntryWithClient(context.Background(), fake.client(), parseArgs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.patches) != 1 {
		t.Fatalf("expected one patch, got %d", len(fake.patches))
	}

	if diff := cmp.Diff([]string{"deploy"}, fake.patches[0].Pipelines.Add); diff != "" {
		t.Fatalf("the pipeline should be added with its server name (-want +got):\n%s", diff)
	}
}

func TestEntryRejectsUnknownPipeline(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Environments = args.StringSliceArgs{"prod"}
	parseArgs.AddPipelines = args.StringSliceArgs{"missing"}

	_, err := EntryWithClient(context.Background(), fake.client(), parseArgs)

	if err == nil || !strings.Contains(err.Error(), "the pipeline missing does not exist") {
		t.Fatalf("expected an unknown pipeline error, got %v", err)
	}

	if len(fake.patches) != 0 {
		t.Fatalf("nothing must be sent when an edit is rejected")
	}
}

func TestEntryRequiresCreateForMissingEnvironment(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Environments = args.StringSliceArgs{"staging"}
	parseArgs.AddPipelines = args.StringSliceArgs{"deploy"}

	_, err := EntryWithClient(context.Background(), fake.client(), parseArgs)

	if err == nil || !strings.Contains(err.Error(), "-createEnvironment") {
		t.Fatalf("expected a missing environment error, got %v", err)
	}
}

func TestEntryCreatesEnvironment(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Environments = args.StringSliceArgs{"staging"}
	parseArgs.AddPipelines = args.StringSliceArgs{"deploy"}
	parseArgs.CreateEnvironment = true

	files, err := EntryWithClient(context.Background(), fake.client(), parseArgs)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"staging"}, fake.created); diff != "" {
		t.Fatalf("unexpected created environments (-want +got):\n%s", diff)
	}

	if len(fake.patches) != 1 || !slices.Equal(fake.patches[0].Pipelines.Add, []string{"deploy"}) {
		t.Fatalf("the pipeline must be added to the new environment, got %v", fake.patches)
	}

	if _, found := files["environments/environment_staging.tf"]; !found {
		t.Fatalf("the new environment must be exported, got %v", sortedKeys(files))
	}
}

func TestEntryDeletesEnvironment(t *testing.T) {
	fake := newFakeGoCDServer(t)

	parseArgs := fake.args()
	parseArgs.Environments = args.StringSliceArgs{"prod", "missing"}
	parseArgs.DeleteEnvironment = true

	files, err := EntryWithClient(context.Background(), fake.client(), parseArgs)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(files) != 0 {
		t.Fatalf("a delete must not generate files, got %v", sortedKeys(files))
	}

	if diff := cmp.Diff([]string{"prod"}, fake.deleted); diff != "" {
		t.Fatalf("unexpected deleted environments (-want +got):\n%s", diff)
	}
}
