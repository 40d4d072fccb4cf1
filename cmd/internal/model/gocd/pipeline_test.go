package gocd

import (
	"encoding/json"
	"github.com/google/go-cmp/cmp"
	"testing"
)

func validPipeline() *Pipeline {
	pipeline := NewPipeline("build-linux", "first")
	pipeline.Materials.Add(NewMaterial(&GitMaterial{Url: "https://github.com/gocd/gocd", Branch: "master", ScmMaterial: ScmMaterial{AutoUpdate: true}}))

	job := NewJob("compile")
	job.Tasks = append(job.Tasks, NewTask(&ExecTask{Command: "make"}))
	pipeline.Stages.Add(NewStage("build", job))

	return pipeline
}

func TestValidPipeline(t *testing.T) {
	pipeline := validPipeline()

	if report := pipeline.ValidateAll(); !report.IsEmpty() {
		t.Fatalf("Pipeline should be valid, got %v", report)
	}
}

func TestBlankPipelineName(t *testing.T) {
	pipeline := validPipeline()
	pipeline.Name = ""

	if pipeline.IsValid() {
		t.Fatalf("Pipeline with a blank name must be invalid")
	}

	if diff := cmp.Diff([]string{"Name must be present"}, pipeline.Errors().Errors("name")); diff != "" {
		t.Fatalf("unexpected errors (-want +got):\n%s", diff)
	}
}

func TestPipelineTemplateAndStages(t *testing.T) {
	pipeline := validPipeline()
	pipeline.Template = "build-template"

	if !pipeline.Validate().HasErrors("template") {
		t.Fatalf("Pipeline with a template and stages must be invalid")
	}

	pipeline.Stages = Stages{}
	if !pipeline.IsValid() {
		t.Fatalf("Pipeline with only a template should be valid")
	}
}

func TestDuplicateStageNames(t *testing.T) {
	pipeline := validPipeline()
	job := NewJob("compile")
	job.Tasks = append(job.Tasks, NewTask(&ExecTask{Command: "make"}))
	pipeline.Stages.Add(NewStage("BUILD", job))

	report := pipeline.ValidateAll()

	for _, path := range []string{"stages[0].name", "stages[1].name"} {
		if diff := cmp.Diff([]string{"Name is a duplicate"}, report[path]); diff != "" {
			t.Errorf("unexpected errors for %s (-want +got):\n%s", path, diff)
		}
	}

	for _, stage := range pipeline.Stages {
		if stage.Errors().Errors("name")[0] != "Name is a duplicate" {
			t.Errorf("Every colliding stage should carry the error")
		}
	}
}

func TestDuplicateJobAndVariableNames(t *testing.T) {
	pipeline := validPipeline()
	stage, _ := pipeline.Stages.Find("build")

	job := NewJob("Compile")
	job.Tasks = append(job.Tasks, NewTask(&ExecTask{Command: "make"}))
	stage.Jobs.Add(job)

	stage.EnvironmentVariables.Add(NewPlainVariable("JAVA_HOME", "/usr"))
	stage.EnvironmentVariables.Add(NewPlainVariable("JAVA_HOME", "/opt"))

	report := pipeline.ValidateAll()

	expected := []string{
		"stages[0].environment_variables[0].name",
		"stages[0].environment_variables[1].name",
		"stages[0].jobs[0].name",
		"stages[0].jobs[1].name",
	}

	if diff := cmp.Diff(expected, report.Paths()); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
}

func TestJobResourcesAndElasticProfile(t *testing.T) {
	job := NewJob("compile")
	job.Resources = []string{"linux"}
	job.ElasticProfileId = "docker"

	if !job.Validate().HasErrors("elastic_profile_id") {
		t.Fatalf("Job cannot have both resources and an elastic profile")
	}
}

func TestRunInstanceCountAndTimeout(t *testing.T) {
	tests := []struct {
		payload string
		count   RunInstanceCount
		timeout Timeout
	}{
		{`{"name": "a", "run_instance_count": null, "timeout": null}`, RunInstanceCount{}, Timeout{}},
		{`{"name": "a", "run_instance_count": "all", "timeout": "never"}`, RunOnAllAgents(), NeverTimeout()},
		{`{"name": "a", "run_instance_count": 3, "timeout": 20}`, RunInstances(3), TimeoutAfter(20)},
		{`{"name": "a", "run_instance_count": "3", "timeout": "20"}`, RunInstances(3), TimeoutAfter(20)},
		{`{"name": "a", "run_instance_count": 0, "timeout": 0}`, RunInstances(0), TimeoutAfter(0)},
	}

	for _, test := range tests {
		job := Job{}
		if err := json.Unmarshal([]byte(test.payload), &job); err != nil {
			t.Fatalf("failed to unmarshal %s: %v", test.payload, err)
		}

		if job.RunInstanceCount != test.count {
			t.Errorf("Expected run instance count %v, got %v", test.count, job.RunInstanceCount)
		}

		if job.Timeout != test.timeout {
			t.Errorf("Expected timeout %v, got %v", test.timeout, job.Timeout)
		}
	}

	if !(RunInstanceCount{}).IsOne() || !(Timeout{}).IsDefault() {
		t.Fatalf("Zero values should run one instance with the default timeout")
	}

	if RunInstances(0).IsOne() || TimeoutAfter(0).IsDefault() {
		t.Fatalf("An explicit 0 is not the same as null")
	}
}

func TestZeroRunInstanceCountIsInvalid(t *testing.T) {
	job := NewJob("unit")
	job.RunInstanceCount = RunInstances(0)
	job.Timeout = TimeoutAfter(0)

	errs := job.Validate()

	if !errs.HasErrors("run_instance_count") {
		t.Fatalf("A run instance count of 0 should be rejected")
	}

	if errs.HasErrors("timeout") {
		t.Fatalf("A timeout of 0 minutes is allowed, got %v", errs.Errors("timeout"))
	}
}

func TestTrackingTool(t *testing.T) {
	tool := NewTrackingTool("https://github.com/gocd/gocd/issues/${ID}", "#(\\d+)")

	if tool.Link("123") != "https://github.com/gocd/gocd/issues/123" {
		t.Fatalf("Unexpected link %s", tool.Link("123"))
	}

	tool.Attributes.UrlPattern = "https://github.com/gocd/gocd/issues"
	if tool.Validate().Errors("url_pattern")[0] != "Url pattern must contain ${ID}" {
		t.Fatalf("Url pattern without ${ID} must be rejected")
	}
	tool.Attributes.UrlPattern = "ftp://tracker.example.org/${ID}"
	if diff := cmp.Diff([]string{"Url pattern must be a valid http(s) url"}, tool.Validate().Errors("url_pattern")); diff != "" {
		t.Fatalf("unexpected errors (-want +got):\n%s", diff)
	}
}

func TestArtifactValidation(t *testing.T) {
	build := &Artifact{Type: ArtifactTypeBuild}
	if build.Validate().Errors("source")[0] != "Source must be present" {
		t.Fatalf("Build artifacts require a source")
	}

	external := &Artifact{Type: ArtifactTypeExternal}
	if external.Validate().Errors("artifact_id")[0] != "Id must be present" {
		t.Fatalf("External artifacts require an id")
	}
}

func TestNullCollectionItemsAreReported(t *testing.T) {
	pipeline := Pipeline{}
	payload := `{
  "name": "p",
  "label_template": "${COUNT}",
  "materials": [null],
  "stages": [null, {"name": "s", "jobs": [{"name": "j", "tasks": [null], "artifacts": [null]}]}]
}`

	if err := json.Unmarshal([]byte(payload), &pipeline); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	report := pipeline.ValidateAll()

	expected := map[string]string{
		"materials[0]":                   "Materials item must be present",
		"stages[0]":                      "Stages item must be present",
		"stages[1].jobs[0].tasks[0]":     "Tasks item must be present",
		"stages[1].jobs[0].artifacts[0]": "Artifacts item must be present",
	}

	for path, message := range expected {
		if diff := cmp.Diff([]string{message}, report[path]); diff != "" {
			t.Errorf("unexpected errors for %s (-want +got):\n%s", path, diff)
		}
	}

	if pipeline.IsValid() {
		t.Fatalf("A pipeline with null items should not be valid")
	}
}
