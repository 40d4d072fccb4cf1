package converters

import (
	"context"
	"encoding/json"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/client"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/samber/lo"
	"testing"
)

const upstreamPipelineJson = `{
  "name": "upstream",
  "group": "first",
  "label_template": "${COUNT}",
  "lock_behavior": "none",
  "origin": {"type": "gocd"},
  "parameters": [{"name": "env", "value": "qa"}],
  "environment_variables": [{"name": "TOKEN", "encrypted_value": "AES:abc", "secure": true}],
  "materials": [{"type": "git", "attributes": {"url": "https://github.com/gocd/gocd", "branch": "main", "auto_update": false, "shallow_clone": true, "invert_filter": false, "filter": {"ignore": ["*.md"]}}}],
  "stages": [{
    "name": "build",
    "fetch_materials": true,
    "clean_working_directory": false,
    "never_cleanup_artifacts": false,
    "approval": {"type": "manual", "allow_only_on_success": true, "authorization": {"users": ["admin"], "roles": []}},
    "environment_variables": [],
    "jobs": [{
      "name": "compile",
      "run_instance_count": "all",
      "timeout": 20,
      "environment_variables": [],
      "resources": ["linux"],
      "tasks": [
        {"type": "exec", "attributes": {"run_if": ["passed"], "command": "make", "arguments": ["all"], "working_directory": ""}},
        {"type": "fetch", "attributes": {"run_if": ["failed"], "artifact_origin": "gocd", "pipeline": "", "stage": "build", "job": "compile", "source": "out", "is_source_a_file": false, "destination": ""}}
      ],
      "tabs": [{"name": "coverage", "path": "coverage/index.html"}],
      "artifacts": [{"type": "build", "source": "target/*.jar", "destination": "pkg"}]
    }]
  }],
  "tracking_tool": {"type": "generic", "attributes": {"url_pattern": "https://github.com/gocd/gocd/issues/${ID}", "regex": "#(\\d+)"}},
  "timer": null
}`

const downstreamPipelineJson = `{
  "name": "downstream",
  "group": "first",
  "label_template": "${COUNT}",
  "lock_behavior": "none",
  "origin": {"type": "config_repo", "id": "repo1"},
  "parameters": [],
  "environment_variables": [],
  "materials": [{"type": "dependency", "attributes": {"pipeline": "upstream", "stage": "build", "auto_update": true, "ignore_for_scheduling": false}}],
  "stages": [{
    "name": "deploy",
    "fetch_materials": false,
    "clean_working_directory": true,
    "never_cleanup_artifacts": false,
    "environment_variables": [],
    "jobs": []
  }],
  "tracking_tool": null,
  "timer": {"spec": "0 0 22 ? * MON-FRI", "only_on_changes": true}
}`

const prodEnvironmentJson = `{
  "name": "prod",
  "origins": [{"type": "gocd"}, {"type": "config_repo", "id": "repo1"}],
  "pipelines": [
    {"name": "upstream", "origin": {"type": "gocd"}},
    {"name": "downstream", "origin": {"type": "config_repo", "id": "repo1"}},
    {"name": "external", "origin": {"type": "gocd"}}
  ],
  "agents": [{"uuid": "agent-1", "hostname": "host1", "origin": {"type": "gocd"}}],
  "environment_variables": [
    {"name": "PASSWORD", "encrypted_value": "AES:abc", "secure": true, "origin": {"type": "gocd"}},
    {"name": "REGION", "value": "us-east-1", "secure": false, "origin": {"type": "config_repo", "id": "repo1"}}
  ]
}`

const remoteEnvironmentJson = `{
  "name": "remote",
  "origins": [{"type": "config_repo", "id": "repo1"}],
  "pipelines": [],
  "agents": [],
  "environment_variables": []
}`

type fakeGoCDClient struct {
	client.GoCDClient
	pipelines    []*gocd.Pipeline
	environments []*gocd.Environment
}

func newFakeGoCDClient(t *testing.T) *fakeGoCDClient {
	fake := &fakeGoCDClient{}

	for _, payload := range []string{upstreamPipelineJson, downstreamPipelineJson} {
		pipeline := &gocd.Pipeline{}
		if err := json.Unmarshal([]byte(payload), pipeline); err != nil {
			t.Fatalf("invalid pipeline fixture: %v", err)
		}
		fake.pipelines = append(fake.pipelines, pipeline)
	}

	for _, payload := range []string{prodEnvironmentJson, remoteEnvironmentJson} {
		environment := &gocd.Environment{}
		if err := json.Unmarshal([]byte(payload), environment); err != nil {
			t.Fatalf("invalid environment fixture: %v", err)
		}
		fake.environments = append(fake.environments, environment)
	}

	return fake
}

func (f *fakeGoCDClient) GetPipelineStructure(ctx context.Context) (gocd.PipelineStructure, error) {
	return gocd.PipelineStructure{
		Groups: []gocd.PipelineGroupStructure{{
			Name: "first",
			Pipelines: lo.Map(f.pipelines, func(item *gocd.Pipeline, index int) gocd.PipelineStructureEntry {
				return gocd.PipelineStructureEntry{Name: item.Name}
			}),
		}},
	}, nil
}

func (f *fakeGoCDClient) GetPipelineConfig(ctx context.Context, name string) (*gocd.Pipeline, bool, error) {
	pipeline, found := lo.Find(f.pipelines, func(item *gocd.Pipeline) bool {
		return item.Name == name
	})
	return pipeline, found, nil
}

func (f *fakeGoCDClient) GetMergedEnvironments(ctx context.Context) ([]*gocd.Environment, error) {
	return f.environments, nil
}
