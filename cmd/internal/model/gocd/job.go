package gocd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/collections"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"strconv"
)

const (
	runOnAllAgents = "all"
	neverTimeout   = "never"
)

const (
	ArtifactTypeBuild    = "build"
	ArtifactTypeTest     = "test"
	ArtifactTypeExternal = "external"
)

var jsonNull = []byte("null")

// RunInstanceCount is null (run one instance), "all" (run on every agent) or a number of instances.
// Set records that a number was given, so an explicit 0 is kept rather than read back as null.
type RunInstanceCount struct {
	All   bool
	Count int
	Set   bool
}

func RunOnAllAgents() RunInstanceCount {
	return RunInstanceCount{All: true}
}

func RunInstances(count int) RunInstanceCount {
	return RunInstanceCount{Count: count, Set: true}
}

func (r RunInstanceCount) IsOne() bool {
	return !r.All && !r.Set && r.Count == 0
}

func (r RunInstanceCount) String() string {
	switch {
	case r.All:
		return runOnAllAgents
	case r.Set || r.Count != 0:
		return strconv.Itoa(r.Count)
	}
	return ""
}

func (r RunInstanceCount) MarshalJSON() ([]byte, error) {
	switch {
	case r.All:
		return json.Marshal(runOnAllAgents)
	case r.Set || r.Count != 0:
		return json.Marshal(r.Count)
	}
	return jsonNull, nil
}

func (r *RunInstanceCount) UnmarshalJSON(data []byte) error {
	*r = RunInstanceCount{}

	if bytes.Equal(data, jsonNull) {
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if text == runOnAllAgents {
			r.All = true
			return nil
		}

		count, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("run_instance_count must be null, \"all\" or a number, got %q", text)
		}
		r.Count = count
		r.Set = true
		return nil
	}

	if err := json.Unmarshal(data, &r.Count); err != nil {
		return err
	}

	r.Set = true
	return nil
}

// Timeout is null (use the server default), "never" or a number of minutes. Set records that a number was
// given; the server treats 0 minutes as never timing out.
type Timeout struct {
	Never   bool
	Minutes int
	Set     bool
}

func NeverTimeout() Timeout {
	return Timeout{Never: true}
}

func TimeoutAfter(minutes int) Timeout {
	return Timeout{Minutes: minutes, Set: true}
}

func (t Timeout) IsDefault() bool {
	return !t.Never && !t.Set && t.Minutes == 0
}

func (t Timeout) String() string {
	switch {
	case t.Never:
		return neverTimeout
	case t.Set || t.Minutes != 0:
		return strconv.Itoa(t.Minutes)
	}
	return ""
}

func (t Timeout) MarshalJSON() ([]byte, error) {
	switch {
	case t.Never:
		return json.Marshal(neverTimeout)
	case t.Set || t.Minutes != 0:
		return json.Marshal(t.Minutes)
	}
	return jsonNull, nil
}

func (t *Timeout) UnmarshalJSON(data []byte) error {
	*t = Timeout{}

	if bytes.Equal(data, jsonNull) {
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if text == neverTimeout {
			t.Never = true
			return nil
		}

		minutes, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("timeout must be null, \"never\" or a number, got %q", text)
		}
		t.Minutes = minutes
		t.Set = true
		return nil
	}

	if err := json.Unmarshal(data, &t.Minutes); err != nil {
		return err
	}

	t.Set = true
	return nil
}

type Job struct {
	Validatable
	Name                 string               `json:"name"`
	RunInstanceCount     RunInstanceCount     `json:"run_instance_count"`
	Timeout              Timeout              `json:"timeout"`
	ElasticProfileId     string               `json:"elastic_profile_id,omitempty"`
	EnvironmentVariables EnvironmentVariables `json:"environment_variables"`
	Resources            []string             `json:"resources"`
	Tasks                []*Task              `json:"tasks"`
	Tabs                 Tabs                 `json:"tabs"`
	Artifacts            []*Artifact          `json:"artifacts"`
	Properties           Properties           `json:"properties,omitempty"`
}

type Jobs = collections.HasMany[*Job]

func NewJob(name string) *Job {
	return &Job{
		Name:                 name,
		EnvironmentVariables: EnvironmentVariables{},
		Resources:            []string{},
		Tasks:                []*Task{},
		Tabs:                 Tabs{},
		Artifacts:            []*Artifact{},
	}
}

func (j *Job) GetName() string {
	return j.Name
}

func (j *Job) Validate() *validation.Errors {
	errs := j.resetErrors()

	if validation.Presence(errs, "name", j.Name) {
		validation.IdFormat(errs, "name", j.Name)
	}

	if j.RunInstanceCount.Count < 0 || (j.RunInstanceCount.Set && j.RunInstanceCount.Count == 0) {
		errs.Add("run_instance_count", validation.MustBePositiveInteger("Run instance count"))
	}

	if j.Timeout.Minutes < 0 {
		errs.Add("timeout", validation.MustBePositiveInteger("Timeout"))
	}

	if j.ElasticProfileId != "" && len(j.Resources) != 0 {
		errs.Add("elastic_profile_id", "Job cannot have both resources and elastic profile id")
	}

	return errs
}

func (j *Job) IsValid() bool {
	report := validation.Report{}
	j.CollectErrors("", report)
	return report.IsEmpty()
}

func (j *Job) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, j.Validate())

	collections.CollectErrors(j.EnvironmentVariables, prefix, "environment_variables", report)
	collections.CollectErrors(j.Tabs, prefix, "tabs", report)
	collections.CollectErrors(j.Properties, prefix, "properties", report)

	for i, task := range j.Tasks {
		if task == nil {
			report.Add(validation.Index(prefix, "tasks", i), validation.MustBePresent("Tasks item"))
			continue
		}

		task.CollectErrors(validation.Index(prefix, "tasks", i), report)
	}

	for i, artifact := range j.Artifacts {
		if artifact == nil {
			report.Add(validation.Index(prefix, "artifacts", i), validation.MustBePresent("Artifacts item"))
			continue
		}

		artifact.CollectErrors(validation.Index(prefix, "artifacts", i), report)
	}
}

type Artifact struct {
	Validatable
	Type        string `json:"type"`
	Source      string `json:"source,omitempty"`
	Destination string `json:"destination,omitempty"`
	// ArtifactId and StoreId are used by external artifacts published through an artifact plugin.
	ArtifactId    string                  `json:"artifact_id,omitempty"`
	StoreId       string                  `json:"store_id,omitempty"`
	Configuration []ConfigurationProperty `json:"configuration,omitempty"`
}

func (a *Artifact) Validate() *validation.Errors {
	errs := a.resetErrors()

	switch a.Type {
	case ArtifactTypeBuild, ArtifactTypeTest:
		validation.Presence(errs, "source", a.Source)
		if a.Destination != "" && !IsRelativeSubPath(a.Destination) {
			errs.Add("destination", destinationMessage)
		}
	case ArtifactTypeExternal:
		validation.Presence(errs, "artifact_id", a.ArtifactId, validation.Label("Id"))
		validation.Presence(errs, "store_id", a.StoreId)
	default:
		errs.Add("type", validation.MustBeOneOf("Type", []string{ArtifactTypeBuild, ArtifactTypeTest, ArtifactTypeExternal}))
	}

	return errs
}

func (a *Artifact) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, a.Validate())
}

// Tab is a custom tab on the job details page displaying an artifact.
type Tab struct {
	Validatable
	Name string `json:"name"`
	Path string `json:"path"`
}

type Tabs = collections.HasMany[*Tab]

func (t *Tab) GetName() string {
	return t.Name
}

func (t *Tab) Validate() *validation.Errors {
	errs := t.resetErrors()
	validation.Presence(errs, "name", t.Name)
	validation.Presence(errs, "path", t.Path)
	validation.MaxLength(errs, "name", t.Name, 15)
	return errs
}

func (t *Tab) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, t.Validate())
}

// Property is a job property extracted from an xml artifact.
type Property struct {
	Validatable
	Name   string `json:"name"`
	Source string `json:"source"`
	Xpath  string `json:"xpath"`
}

type Properties = collections.HasMany[*Property]

func (p *Property) GetName() string {
	return p.Name
}

func (p *Property) Validate() *validation.Errors {
	errs := p.resetErrors()
	validation.Presence(errs, "name", p.Name)
	validation.Presence(errs, "source", p.Source)
	validation.Presence(errs, "xpath", p.Xpath, validation.Label("XPath"))
	return errs
}

func (p *Property) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, p.Validate())
}
