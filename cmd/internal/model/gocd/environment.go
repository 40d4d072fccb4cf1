package gocd

import (
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/collections"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"github.com/samber/lo"
	"strings"
)

type EnvironmentPipeline struct {
	Name   string  `json:"name"`
	Origin *Origin `json:"origin,omitempty"`
}

type EnvironmentAgent struct {
	Uuid     string  `json:"uuid"`
	Hostname string  `json:"hostname,omitempty"`
	Origin   *Origin `json:"origin,omitempty"`
}

// Environment is the merged view of an environment: the local definition plus any fragments contributed by
// config repositories. Every association records its own origin.
type Environment struct {
	Validatable
	Name                 string                `json:"name"`
	Origins              []Origin              `json:"origins,omitempty"`
	Pipelines            []EnvironmentPipeline `json:"pipelines"`
	Agents               []EnvironmentAgent    `json:"agents"`
	EnvironmentVariables EnvironmentVariables  `json:"environment_variables"`
	ETag                 string                `json:"-"`
}

type Environments = collections.HasMany[*Environment]

func NewEnvironment(name string) *Environment {
	return &Environment{
		Name:                 name,
		Origins:              []Origin{{Type: OriginGoCD}},
		Pipelines:            []EnvironmentPipeline{},
		Agents:               []EnvironmentAgent{},
		EnvironmentVariables: EnvironmentVariables{},
	}
}

func (e *Environment) GetName() string {
	return e.Name
}

// IsLocal is true when the environment is only defined in the server's config file.
func (e *Environment) IsLocal() bool {
	return !e.IsDefinedRemotely()
}

// IsDefinedRemotely is true when any part of the environment comes from a config repository.
func (e *Environment) IsDefinedRemotely() bool {
	return lo.ContainsBy(e.Origins, func(item Origin) bool {
		return item.IsDefinedInConfigRepo()
	})
}

func (e *Environment) ContainsPipeline(name string) bool {
	_, found := e.findPipeline(name)
	return found
}

func (e *Environment) ContainsAgent(uuid string) bool {
	_, found := e.findAgent(uuid)
	return found
}

func (e *Environment) PipelineNames() []string {
	return lo.Map(e.Pipelines, func(item EnvironmentPipeline, index int) string {
		return item.Name
	})
}

func (e *Environment) AgentUuids() []string {
	return lo.Map(e.Agents, func(item EnvironmentAgent, index int) string {
		return item.Uuid
	})
}

// AddPipeline associates a pipeline with the environment. Adding an associated pipeline is a no-op.
func (e *Environment) AddPipeline(name string) {
	if e.ContainsPipeline(name) {
		return
	}

	e.Pipelines = append(e.Pipelines, EnvironmentPipeline{Name: name, Origin: LocalOrigin()})
}

// RemovePipeline removes a local pipeline association. Removing a missing pipeline is a no-op, while
// removing a pipeline associated by a config repository is an error.
func (e *Environment) RemovePipeline(name string) error {
	index, found := e.findPipeline(name)
	if !found {
		return nil
	}

	if origin := e.Pipelines[index].Origin; origin.IsDefinedInConfigRepo() {
		return fmt.Errorf("pipeline '%s' is defined in config repository '%s' and cannot be removed from environment '%s'", name, origin.Id, e.Name)
	}

	e.Pipelines = append(e.Pipelines[:index], e.Pipelines[index+1:]...)
	return nil
}

// AddAgent associates an agent with the environment. Adding an associated agent is a no-op.
func (e *Environment) AddAgent(uuid string, hostname string) {
	if e.ContainsAgent(uuid) {
		return
	}

	e.Agents = append(e.Agents, EnvironmentAgent{Uuid: uuid, Hostname: hostname, Origin: LocalOrigin()})
}

// RemoveAgent follows the same rules as RemovePipeline.
func (e *Environment) RemoveAgent(uuid string) error {
	index, found := e.findAgent(uuid)
	if !found {
		return nil
	}

	if origin := e.Agents[index].Origin; origin.IsDefinedInConfigRepo() {
		return fmt.Errorf("agent '%s' is associated by config repository '%s' and cannot be removed from environment '%s'", uuid, origin.Id, e.Name)
	}

	e.Agents = append(e.Agents[:index], e.Agents[index+1:]...)
	return nil
}

func (e *Environment) findPipeline(name string) (int, bool) {
	_, index, found := lo.FindIndexOf(e.Pipelines, func(item EnvironmentPipeline) bool {
		return strings.EqualFold(item.Name, name)
	})
	return index, found
}

func (e *Environment) findAgent(uuid string) (int, bool) {
	_, index, found := lo.FindIndexOf(e.Agents, func(item EnvironmentAgent) bool {
		return item.Uuid == uuid
	})
	return index, found
}

func (e *Environment) Validate() *validation.Errors {
	errs := e.resetErrors()

	if validation.Presence(errs, "name", e.Name) {
		validation.IdFormat(errs, "name", e.Name)
	}

	return errs
}

func (e *Environment) IsValid() bool {
	report := validation.Report{}
	e.CollectErrors("", report)
	return report.IsEmpty()
}

func (e *Environment) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, e.Validate())
	collections.CollectErrors(e.EnvironmentVariables, prefix, "environment_variables", report)
}

type pipelineReference struct {
	Name string `json:"name"`
}

type agentReference struct {
	Uuid string `json:"uuid"`
}

// EnvironmentCreateRequest is the body of POST /api/admin/environments.
type EnvironmentCreateRequest struct {
	Name                 string                 `json:"name"`
	Pipelines            []pipelineReference    `json:"pipelines"`
	Agents               []agentReference       `json:"agents"`
	EnvironmentVariables []*EnvironmentVariable `json:"environment_variables"`
}

// CreateRequest builds the creation payload from the locally defined parts of the environment.
func (e *Environment) CreateRequest() EnvironmentCreateRequest {
	localPipelines := lo.Filter(e.Pipelines, func(item EnvironmentPipeline, index int) bool {
		return item.Origin.IsLocal()
	})

	localAgents := lo.Filter(e.Agents, func(item EnvironmentAgent, index int) bool {
		return item.Origin.IsLocal()
	})

	localVariables := lo.Filter(e.EnvironmentVariables, func(item *EnvironmentVariable, index int) bool {
		return item.Origin.IsLocal()
	})

	return EnvironmentCreateRequest{
		Name: e.Name,
		Pipelines: lo.Map(localPipelines, func(item EnvironmentPipeline, index int) pipelineReference {
			return pipelineReference{Name: item.Name}
		}),
		Agents: lo.Map(localAgents, func(item EnvironmentAgent, index int) agentReference {
			return agentReference{Uuid: item.Uuid}
		}),
		EnvironmentVariables: lo.Map(localVariables, func(item *EnvironmentVariable, index int) *EnvironmentVariable {
			return &EnvironmentVariable{
				Name:           item.Name,
				Value:          item.Value,
				EncryptedValue: item.EncryptedValue,
				Secure:         item.Secure,
			}
		}),
	}
}

type AddRemove struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

type VariablesAddRemove struct {
	Add    []*EnvironmentVariable `json:"add"`
	Remove []string               `json:"remove"`
}

// EnvironmentPatch is the body of PATCH /api/admin/environments/:name.
type EnvironmentPatch struct {
	Pipelines            AddRemove          `json:"pipelines"`
	Agents               AddRemove          `json:"agents"`
	EnvironmentVariables VariablesAddRemove `json:"environment_variables"`
}

func (p EnvironmentPatch) IsEmpty() bool {
	return len(p.Pipelines.Add) == 0 && len(p.Pipelines.Remove) == 0 &&
		len(p.Agents.Add) == 0 && len(p.Agents.Remove) == 0 &&
		len(p.EnvironmentVariables.Add) == 0 && len(p.EnvironmentVariables.Remove) == 0
}

// DiffEnvironments builds the patch that turns before into after. Variables whose value changed are removed
// and added again, which is how the server expects an update.
func DiffEnvironments(before *Environment, after *Environment) EnvironmentPatch {
	patch := EnvironmentPatch{
		Pipelines:            AddRemove{Add: []string{}, Remove: []string{}},
		Agents:               AddRemove{Add: []string{}, Remove: []string{}},
		EnvironmentVariables: VariablesAddRemove{Add: []*EnvironmentVariable{}, Remove: []string{}},
	}

	for _, pipeline := range after.Pipelines {
		if !before.ContainsPipeline(pipeline.Name) {
			patch.Pipelines.Add = append(patch.Pipelines.Add, pipeline.Name)
		}
	}

	for _, pipeline := range before.Pipelines {
		if !after.ContainsPipeline(pipeline.Name) {
			patch.Pipelines.Remove = append(patch.Pipelines.Remove, pipeline.Name)
		}
	}

	for _, agent := range after.Agents {
		if !before.ContainsAgent(agent.Uuid) {
			patch.Agents.Add = append(patch.Agents.Add, agent.Uuid)
		}
	}

	for _, agent := range before.Agents {
		if !after.ContainsAgent(agent.Uuid) {
			patch.Agents.Remove = append(patch.Agents.Remove, agent.Uuid)
		}
	}

	for _, variable := range before.EnvironmentVariables {
		updated, found := after.EnvironmentVariables.Find(variable.Name)
		if !found || !sameVariable(variable, updated) {
			patch.EnvironmentVariables.Remove = append(patch.EnvironmentVariables.Remove, variable.Name)
		}
	}

	for _, variable := range after.EnvironmentVariables {
		original, found := before.EnvironmentVariables.Find(variable.Name)
		if !found || !sameVariable(original, variable) {
			patch.EnvironmentVariables.Add = append(patch.EnvironmentVariables.Add, variable)
		}
	}

	return patch
}

func sameVariable(a *EnvironmentVariable, b *EnvironmentVariable) bool {
	return a.Secure == b.Secure && equalPointers(a.Value, b.Value) && equalPointers(a.EncryptedValue, b.EncryptedValue)
}

func equalPointers(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
