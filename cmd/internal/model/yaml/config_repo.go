package yaml

import (
	"bytes"
	"errors"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the version of the YAML config repository format the documents are written in.
const FormatVersion = 10

// ConfigRepo is a GoCD YAML config repository document, e.g.
//
//	format_version: 10
//	environments:
//	  prod:
//	    pipelines: [build]
//	pipelines:
//	  build:
//	    group: first
type ConfigRepo struct {
	FormatVersion int                      `yaml:"format_version"`
	Environments  OrderedMap[*Environment] `yaml:"environments,omitempty"`
	Pipelines     OrderedMap[*Pipeline]    `yaml:"pipelines,omitempty"`
}

func NewConfigRepo() *ConfigRepo {
	return &ConfigRepo{FormatVersion: FormatVersion}
}

type Environment struct {
	EnvironmentVariables OrderedMap[string] `yaml:"environment_variables,omitempty"`
	SecureVariables      OrderedMap[string] `yaml:"secure_variables,omitempty"`
	Agents               []string           `yaml:"agents,omitempty"`
	Pipelines            []string           `yaml:"pipelines,omitempty"`
}

type Pipeline struct {
	Group                string                `yaml:"group,omitempty"`
	LabelTemplate        string                `yaml:"label_template,omitempty"`
	LockBehavior         string                `yaml:"lock_behavior,omitempty"`
	Template             string                `yaml:"template,omitempty"`
	Parameters           OrderedMap[string]    `yaml:"parameters,omitempty"`
	EnvironmentVariables OrderedMap[string]    `yaml:"environment_variables,omitempty"`
	SecureVariables      OrderedMap[string]    `yaml:"secure_variables,omitempty"`
	TrackingTool         *TrackingTool         `yaml:"tracking_tool,omitempty"`
	Timer                *Timer                `yaml:"timer,omitempty"`
	Materials            OrderedMap[*Material] `yaml:"materials,omitempty"`
	Stages               []map[string]*Stage   `yaml:"stages,omitempty"`
}

type TrackingTool struct {
	Link  string `yaml:"link"`
	Regex string `yaml:"regex"`
}

type Timer struct {
	Spec          string `yaml:"spec"`
	OnlyOnChanges bool   `yaml:"only_on_changes,omitempty"`
}

// Material uses the key naming the material type to hold its location, e.g. "git: https://..." or
// "pipeline: upstream".
type Material struct {
	Git                 string   `yaml:"git,omitempty"`
	Svn                 string   `yaml:"svn,omitempty"`
	Hg                  string   `yaml:"hg,omitempty"`
	P4                  string   `yaml:"p4,omitempty"`
	Tfs                 string   `yaml:"tfs,omitempty"`
	Pipeline            string   `yaml:"pipeline,omitempty"`
	Stage               string   `yaml:"stage,omitempty"`
	Package             string   `yaml:"package,omitempty"`
	Scm                 string   `yaml:"scm,omitempty"`
	Branch              string   `yaml:"branch,omitempty"`
	ShallowClone        bool     `yaml:"shallow_clone,omitempty"`
	CheckExternals      bool     `yaml:"check_externals,omitempty"`
	UseTickets          bool     `yaml:"use_tickets,omitempty"`
	View                string   `yaml:"view,omitempty"`
	Domain              string   `yaml:"domain,omitempty"`
	Project             string   `yaml:"project,omitempty"`
	Username            string   `yaml:"username,omitempty"`
	EncryptedPassword   string   `yaml:"encrypted_password,omitempty"`
	Destination         string   `yaml:"destination,omitempty"`
	AutoUpdate          *bool    `yaml:"auto_update,omitempty"`
	Ignore              []string `yaml:"ignore,omitempty"`
	Includes            []string `yaml:"includes,omitempty"`
	IgnoreForScheduling bool     `yaml:"ignore_for_scheduling,omitempty"`
}

type Stage struct {
	FetchMaterials       *bool              `yaml:"fetch_materials,omitempty"`
	CleanWorkspace       bool               `yaml:"clean_workspace,omitempty"`
	KeepArtifacts        bool               `yaml:"keep_artifacts,omitempty"`
	Approval             *Approval          `yaml:"approval,omitempty"`
	EnvironmentVariables OrderedMap[string] `yaml:"environment_variables,omitempty"`
	SecureVariables      OrderedMap[string] `yaml:"secure_variables,omitempty"`
	Jobs                 OrderedMap[*Job]   `yaml:"jobs"`
}

type Approval struct {
	Type               string   `yaml:"type"`
	AllowOnlyOnSuccess bool     `yaml:"allow_only_on_success,omitempty"`
	Users              []string `yaml:"users,omitempty"`
	Roles              []string `yaml:"roles,omitempty"`
}

type Job struct {
	// Timeout is a number of minutes or "never"
	Timeout any `yaml:"timeout,omitempty"`
	// RunInstances is a number or "all"
	RunInstances         any                   `yaml:"run_instances,omitempty"`
	ElasticProfileId     string                `yaml:"elastic_profile_id,omitempty"`
	Resources            []string              `yaml:"resources,omitempty"`
	EnvironmentVariables OrderedMap[string]    `yaml:"environment_variables,omitempty"`
	SecureVariables      OrderedMap[string]    `yaml:"secure_variables,omitempty"`
	Tabs                 OrderedMap[string]    `yaml:"tabs,omitempty"`
	Artifacts            []map[string]Artifact `yaml:"artifacts,omitempty"`
	Tasks                []map[string]*Task    `yaml:"tasks"`
}

type Artifact struct {
	Source        string         `yaml:"source,omitempty"`
	Destination   string         `yaml:"destination,omitempty"`
	Id            string         `yaml:"id,omitempty"`
	StoreId       string         `yaml:"store_id,omitempty"`
	Configuration *PluginOptions `yaml:"configuration,omitempty"`
}

// Task holds the attributes of every task type. The task type is the key of the single entry map the task
// is wrapped in, e.g. "- exec: {command: make}".
type Task struct {
	Command          string             `yaml:"command,omitempty"`
	Arguments        []string           `yaml:"arguments,omitempty"`
	BuildFile        string             `yaml:"build_file,omitempty"`
	Target           string             `yaml:"target,omitempty"`
	NantPath         string             `yaml:"nant_path,omitempty"`
	WorkingDirectory string             `yaml:"working_directory,omitempty"`
	Pipeline         string             `yaml:"pipeline,omitempty"`
	Stage            string             `yaml:"stage,omitempty"`
	Job              string             `yaml:"job,omitempty"`
	Source           string             `yaml:"source,omitempty"`
	IsFile           bool               `yaml:"is_file,omitempty"`
	Destination      string             `yaml:"destination,omitempty"`
	ArtifactOrigin   string             `yaml:"artifact_origin,omitempty"`
	Configuration    *PluginOptions     `yaml:"configuration,omitempty"`
	Options          OrderedMap[string] `yaml:"options,omitempty"`
	SecureOptions    OrderedMap[string] `yaml:"secure_options,omitempty"`
	RunIf            string             `yaml:"run_if,omitempty"`
	OnCancel         map[string]*Task   `yaml:"on_cancel,omitempty"`
}

type PluginOptions struct {
	Id            string             `yaml:"id,omitempty"`
	Version       string             `yaml:"version,omitempty"`
	Options       OrderedMap[string] `yaml:"options,omitempty"`
	SecureOptions OrderedMap[string] `yaml:"secure_options,omitempty"`
}

// Marshal writes the document with the two space indentation used by GoCD's YAML config plugin.
func (c *ConfigRepo) Marshal() (string, error) {
	buffer := bytes.Buffer{}
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(2)

	if err := encoder.Encode(c); err != nil {
		return "", errors.Join(err, encoder.Close())
	}

	if err := encoder.Close(); err != nil {
		return "", err
	}

	return buffer.String(), nil
}
