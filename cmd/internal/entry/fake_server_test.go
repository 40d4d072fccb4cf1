package entry

import (
	"encoding/json"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/args"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/client"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const pipelineStructureJson = `{
  "groups": [{
    "name": "first",
    "pipelines": [
      {"name": "build", "stages": [{"name": "build", "jobs": [{"name": "compile"}]}]},
      {"name": "deploy", "stages": [{"name": "deploy", "jobs": [{"name": "release"}]}]}
    ]
  }],
  "templates": []
}`

const buildPipelineJson = `{
  "name": "build",
  "group": "first",
  "label_template": "${COUNT}",
  "lock_behavior": "none",
  "origin": {"type": "gocd"},
  "parameters": [],
  "environment_variables": [],
  "materials": [{"type": "git", "attributes": {"url": "https://github.com/gocd/gocd", "branch": "main", "auto_update": true}}],
  "stages": [{
    "name": "build",
    "fetch_materials": true,
    "environment_variables": [],
    "jobs": [{"name": "compile", "environment_variables": [], "resources": [], "tasks": [{"type": "exec", "attributes": {"run_if": ["passed"], "command": "make"}}], "tabs": [], "artifacts": []}]
  }],
  "tracking_tool": null,
  "timer": null
}`

const deployPipelineJson = `{
  "name": "deploy",
  "group": "first",
  "label_template": "${COUNT}",
  "lock_behavior": "none",
  "origin": {"type": "gocd"},
  "parameters": [],
  "environment_variables": [],
  "materials": [{"type": "dependency", "attributes": {"pipeline": "build", "stage": "package", "auto_update": true}}],
  "stages": [{
    "name": "deploy",
    "fetch_materials": true,
    "environment_variables": [],
    "jobs": [{"name": "release", "environment_variables": [], "resources": [], "tasks": [{"type": "exec", "attributes": {"run_if": ["passed"], "command": "./release.sh"}}], "tabs": [], "artifacts": []}]
  }],
  "tracking_tool": null,
  "timer": null
}`

const agentsJson = `{"_embedded": {"agents": [
  {"uuid": "agent-1", "hostname": "host1", "agent_config_state": "Enabled", "resources": [], "environments": []},
  {"uuid": "agent-2", "hostname": "host2", "agent_config_state": "Disabled", "resources": [], "environments": []}
]}}`

const currentETag = `"etag-1"`

// fakeGoCDServer serves the admin endpoints the exporter uses, keeping environments in memory.
type fakeGoCDServer struct {
	mu            sync.Mutex
	environments  []*gocd.Environment
	patches       []gocd.EnvironmentPatch
	created       []string
	deleted       []string
	materialTests []string
	server        *httptest.Server
}

func newFakeGoCDServer(t *testing.T) *fakeGoCDServer {
	fake := &fakeGoCDServer{
		environments: []*gocd.Environment{
			{
				Name:                 "prod",
				Origins:              []gocd.Origin{{Type: gocd.OriginGoCD}},
				Pipelines:            []gocd.EnvironmentPipeline{{Name: "build", Origin: gocd.LocalOrigin()}},
				Agents:               []gocd.EnvironmentAgent{},
				EnvironmentVariables: gocd.EnvironmentVariables{gocd.NewPlainVariable("REGION", "us-east-1")},
			},
		},
	}

	pipelines := map[string]string{"build": buildPipelineJson, "deploy": deployPipelineJson}

	router := chi.NewRouter()
	router.Route("/go/api", func(r chi.Router) {
		r.Get("/internal/pipeline_structure", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(pipelineStructureJson))
		})
		r.Get("/admin/pipelines/{name}", func(w http.ResponseWriter, r *http.Request) {
			pipeline, found := pipelines[chi.URLParam(r, "name")]
			if !found {
				writeJson(w, http.StatusNotFound, gocd.MessageResponse{Message: "Not found"})
				return
			}
			_, _ = w.Write([]byte(pipeline))
		})
		r.Get("/agents", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(agentsJson))
		})
		r.Get("/admin/internal/environments/merged", func(w http.ResponseWriter, r *http.Request) {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			writeJson(w, http.StatusOK, gocd.EmbeddedCollection[*gocd.Environment]{Embedded: map[string][]*gocd.Environment{"environments": fake.environments}})
		})
		r.Get("/admin/environments/{name}", func(w http.ResponseWriter, r *http.Request) {
			environment := fake.find(chi.URLParam(r, "name"))
			if environment == nil {
				writeJson(w, http.StatusNotFound, gocd.MessageResponse{Message: "Not found"})
				return
			}
			w.Header().Set("ETag", currentETag)
			writeJson(w, http.StatusOK, environment)
		})
		r.Post("/admin/environments", func(w http.ResponseWriter, r *http.Request) {
			request := gocd.EnvironmentCreateRequest{}
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				t.Errorf("invalid create request: %v", err)
			}

			environment := gocd.NewEnvironment(request.Name)
			fake.mu.Lock()
			fake.environments = append(fake.environments, environment)
			fake.created = append(fake.created, request.Name)
			fake.mu.Unlock()

			w.Header().Set("ETag", currentETag)
			writeJson(w, http.StatusOK, environment)
		})
		r.Patch("/admin/environments/{name}", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("If-Match") != currentETag {
				writeJson(w, http.StatusPreconditionFailed, gocd.MessageResponse{Message: "Someone has modified the configuration"})
				return
			}

			patch := gocd.EnvironmentPatch{}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				t.Errorf("invalid patch request: %v", err)
			}

			fake.mu.Lock()
			fake.patches = append(fake.patches, patch)
			fake.mu.Unlock()

			writeJson(w, http.StatusOK, fake.find(chi.URLParam(r, "name")))
		})
		r.Post("/admin/internal/material_test", func(w http.ResponseWriter, r *http.Request) {
			request := struct {
				Type         string `json:"type"`
				PipelineName string `json:"pipeline_name"`
			}{}
			if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
				t.Errorf("invalid material test request: %v", err)
			}

			fake.mu.Lock()
			fake.materialTests = append(fake.materialTests, request.PipelineName+"/"+request.Type)
			fake.mu.Unlock()

			writeJson(w, http.StatusUnprocessableEntity, gocd.MessageResponse{Message: "Failed to find 'git' on your PATH"})
		})
		r.Delete("/admin/environments/{name}", func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")
			if fake.find(name) == nil {
				writeJson(w, http.StatusNotFound, gocd.MessageResponse{Message: "Not found"})
				return
			}

			fake.mu.Lock()
			fake.deleted = append(fake.deleted, name)
			fake.environments = lo.Filter(fake.environments, func(item *gocd.Environment, index int) bool {
				return item.Name != name
			})
			fake.mu.Unlock()

			writeJson(w, http.StatusOK, gocd.MessageResponse{Message: "Environment '" + name + "' was deleted successfully!"})
		})
	})

	fake.server = httptest.NewServer(router)
	t.Cleanup(fake.server.Close)

	return fake
}

func (f *fakeGoCDServer) find(name string) *gocd.Environment {
	f.mu.Lock()
	defer f.mu.Unlock()

	environment, _ := lo.Find(f.environments, func(item *gocd.Environment) bool {
		return item.Name == name
	})
	return environment
}

func (f *fakeGoCDServer) client() *client.GoCDApiClient {
	gocdClient := client.NewGoCDApiClient(f.server.URL+"/go", "admin", "badger", "")
	gocdClient.RetryDelay = time.Millisecond
	return gocdClient
}

func (f *fakeGoCDServer) args() args.Arguments {
	return args.Arguments{
		Url:            f.server.URL + "/go",
		Format:         args.FormatHcl,
		LogLevel:       "info",
		MaxConcurrency: 2,
	}
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", client.AcceptHeader)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
