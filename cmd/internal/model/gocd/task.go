package gocd

import (
	"encoding/json"
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"github.com/samber/lo"
	"strings"
)

const (
	TaskTypeAnt    = "ant"
	TaskTypeNant   = "nant"
	TaskTypeRake   = "rake"
	TaskTypeExec   = "exec"
	TaskTypeFetch  = "fetch"
	TaskTypePlugin = "pluggable_task"
)

const (
	RunIfPassed = "passed"
	RunIfFailed = "failed"
	RunIfAny    = "any"
)

var runIfValues = []string{RunIfPassed, RunIfFailed, RunIfAny}

// Task is a tagged union over the task types. Attributes holds one of AntTask, NantTask, RakeTask, ExecTask,
// FetchTask or PluginTask, selected by Type.
type Task struct {
	Type       string
	Attributes TaskAttributes
}

// TaskAttributes is implemented by the type specific task attributes.
type TaskAttributes interface {
	// Common returns the run condition, cancel task and error bag shared by every task type.
	Common() *TaskCommon
	// Summary is the short description shown when listing the tasks of a job.
	Summary() string
	validate(errs *validation.Errors)
}

type TaskCommon struct {
	Validatable
	RunIf    []string `json:"run_if"`
	OnCancel *Task    `json:"on_cancel"`
}

func (c *TaskCommon) Common() *TaskCommon {
	return c
}

type wireTask struct {
	Type       string              `json:"type"`
	Attributes json.RawMessage     `json:"attributes"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

func NewTask(attributes TaskAttributes) *Task {
	task := &Task{Attributes: attributes}

	switch attributes.(type) {
	case *AntTask:
		task.Type = TaskTypeAnt
	case *NantTask:
		task.Type = TaskTypeNant
	case *RakeTask:
		task.Type = TaskTypeRake
	case *ExecTask:
		task.Type = TaskTypeExec
	case *FetchTask:
		task.Type = TaskTypeFetch
	case *PluginTask:
		task.Type = TaskTypePlugin
	}

	if len(attributes.Common().RunIf) == 0 {
		attributes.Common().RunIf = []string{RunIfPassed}
	}

	return task
}

func newTaskAttributes(taskType string) (TaskAttributes, error) {
	switch taskType {
	case TaskTypeAnt:
		return &AntTask{}, nil
	case TaskTypeNant:
		return &NantTask{}, nil
	case TaskTypeRake:
		return &RakeTask{}, nil
	case TaskTypeExec:
		return &ExecTask{}, nil
	case TaskTypeFetch:
		return &FetchTask{ArtifactOrigin: OriginGoCD}, nil
	case TaskTypePlugin:
		return &PluginTask{}, nil
	}

	return nil, fmt.Errorf("unknown task type %q", taskType)
}

func (t Task) MarshalJSON() ([]byte, error) {
	attributes, serverErrors, err := marshalAttributes(t.Attributes, &t.Attributes.Common().Validatable)

	if err != nil {
		return nil, err
	}

	return json.Marshal(wireTask{Type: t.Type, Attributes: attributes, Errors: serverErrors})
}

func (t *Task) UnmarshalJSON(data []byte) error {
	wire := wireTask{}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	attributes, err := newTaskAttributes(wire.Type)
	if err != nil {
		return err
	}

	if len(wire.Attributes) != 0 {
		if err := json.Unmarshal(wire.Attributes, attributes); err != nil {
			return fmt.Errorf("failed to read the attributes of the %s task: %w", wire.Type, err)
		}
	}

	attributes.Common().mergeServerErrors(wire.Errors)

	t.Type = wire.Type
	t.Attributes = attributes
	return nil
}

func (t *Task) String() string {
	return t.Attributes.Summary()
}

func (t *Task) Errors() *validation.Errors {
	return t.Attributes.Common().Errors()
}

func (t *Task) Validate() *validation.Errors {
	common := t.Attributes.Common()
	errs := common.resetErrors()

	validation.Inclusion(errs, "run_if", common.RunIf, runIfValues)
	t.Attributes.validate(errs)

	return errs
}

func (t *Task) IsValid() bool {
	report := validation.Report{}
	t.CollectErrors("", report)
	return report.IsEmpty()
}

func (t *Task) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, t.Validate())

	if onCancel := t.Attributes.Common().OnCancel; onCancel != nil {
		onCancel.CollectErrors(validation.Path(prefix, "on_cancel"), report)
	}
}

// BuildTask covers the attributes shared by the ant, nant and rake tasks.
type BuildTask struct {
	TaskCommon
	BuildFile        string `json:"build_file"`
	Target           string `json:"target"`
	WorkingDirectory string `json:"working_directory"`
}

func (b *BuildTask) Summary() string {
	return strings.TrimSpace(b.Target + " " + b.BuildFile)
}

func (b *BuildTask) validate(errs *validation.Errors) {
	validateWorkingDirectory(errs, b.WorkingDirectory)
}

type AntTask struct {
	BuildTask
}

type NantTask struct {
	BuildTask
	NantPath string `json:"nant_path"`
}

type RakeTask struct {
	BuildTask
}

type ExecTask struct {
	TaskCommon
	Command string `json:"command"`
	// Arguments is the list form used by current servers.
	Arguments []string `json:"arguments,omitempty"`
	// Args is the single string form used by older configurations.
	Args             string `json:"args,omitempty"`
	WorkingDirectory string `json:"working_directory"`
}

// CommandLine returns the arguments regardless of which form was used.
func (e *ExecTask) CommandLine() []string {
	if len(e.Arguments) != 0 {
		return e.Arguments
	}

	return strings.Fields(e.Args)
}

func (e *ExecTask) Summary() string {
	if e.Args != "" {
		return strings.TrimSpace(e.Command + " " + e.Args)
	}

	return strings.TrimSpace(strings.Join(append([]string{e.Command}, e.Arguments...), " "))
}

func (e *ExecTask) validate(errs *validation.Errors) {
	validation.Presence(errs, "command", e.Command)
	validateWorkingDirectory(errs, e.WorkingDirectory)
}

type FetchTask struct {
	TaskCommon
	ArtifactOrigin string `json:"artifact_origin,omitempty"`
	Pipeline       string `json:"pipeline"`
	Stage          string `json:"stage"`
	Job            string `json:"job"`
	Source         string `json:"source"`
	IsSourceAFile  bool   `json:"is_source_a_file"`
	Destination    string `json:"destination"`
}

func (f *FetchTask) Summary() string {
	return strings.Join(lo.Filter([]string{f.Pipeline, f.Stage, f.Job}, func(item string, index int) bool {
		return item != ""
	}), " ")
}

func (f *FetchTask) validate(errs *validation.Errors) {
	validation.Presence(errs, "stage", f.Stage)
	validation.Presence(errs, "job", f.Job)
	validation.Presence(errs, "source", f.Source)
}

type PluginConfiguration struct {
	Id      string `json:"id"`
	Version string `json:"version"`
}

// ConfigurationProperty is a plugin setting. Secure settings carry an encrypted value instead of a value.
type ConfigurationProperty struct {
	Key            string  `json:"key"`
	Value          *string `json:"value,omitempty"`
	EncryptedValue *string `json:"encrypted_value,omitempty"`
}

func (p ConfigurationProperty) DisplayValue() string {
	if p.EncryptedValue != nil {
		return "****"
	}

	if p.Value == nil {
		return ""
	}

	return *p.Value
}

type PluginTask struct {
	TaskCommon
	PluginConfiguration PluginConfiguration     `json:"plugin_configuration"`
	Configuration       []ConfigurationProperty `json:"configuration"`
}

func (p *PluginTask) Summary() string {
	return strings.Join(lo.Map(p.Configuration, func(item ConfigurationProperty, index int) string {
		return item.Key + ": " + item.DisplayValue()
	}), " ")
}

func (p *PluginTask) validate(errs *validation.Errors) {
	validation.Presence(errs, "plugin_id", p.PluginConfiguration.Id)

	keys := lo.Map(p.Configuration, func(item ConfigurationProperty, index int) string {
		return item.Key
	})

	if len(lo.FindDuplicates(keys)) != 0 {
		errs.Add("configuration", validation.Duplicate("Configuration key"))
	}
}

func validateWorkingDirectory(errs *validation.Errors, workingDirectory string) {
	if workingDirectory != "" && !IsRelativeSubPath(workingDirectory) {
		errs.Add("working_directory", "Working directory must be a relative path within the pipeline's working directory")
	}
}
