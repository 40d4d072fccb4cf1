package gocd

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/collections"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"strings"
)

const (
	LockOnFailure      = "lockOnFailure"
	UnlockWhenFinished = "unlockWhenFinished"
	LockNone           = "none"
)

const DefaultLabelTemplate = "${COUNT}"

const trackingToolIdPlaceholder = "${ID}"

type Pipeline struct {
	Validatable
	LabelTemplate        string               `json:"label_template"`
	LockBehavior         string               `json:"lock_behavior"`
	Name                 string               `json:"name"`
	Template             string               `json:"template,omitempty"`
	Group                string               `json:"group,omitempty"`
	Origin               *Origin              `json:"origin,omitempty"`
	Parameters           Parameters           `json:"parameters"`
	EnvironmentVariables EnvironmentVariables `json:"environment_variables"`
	Materials            Materials            `json:"materials"`
	Stages               Stages               `json:"stages"`
	TrackingTool         *TrackingTool        `json:"tracking_tool"`
	Timer                *Timer               `json:"timer"`
	// ETag is the version of the pipeline config the server returned, sent back as If-Match on update.
	ETag string `json:"-"`
}

func NewPipeline(name string, group string) *Pipeline {
	return &Pipeline{
		Name:                 name,
		Group:                group,
		LabelTemplate:        DefaultLabelTemplate,
		LockBehavior:         LockNone,
		Parameters:           Parameters{},
		EnvironmentVariables: EnvironmentVariables{},
		Materials:            Materials{},
		Stages:               Stages{},
	}
}

func (p *Pipeline) GetName() string {
	return p.Name
}

func (p *Pipeline) UsesTemplate() bool {
	return p.Template != ""
}

func (p *Pipeline) IsDefinedInConfigRepo() bool {
	return p.Origin.IsDefinedInConfigRepo()
}

func (p *Pipeline) Validate() *validation.Errors {
	errs := p.resetErrors()

	if validation.Presence(errs, "name", p.Name) {
		validation.IdFormat(errs, "name", p.Name)
	}

	if validation.Presence(errs, "label_template", p.LabelTemplate) && !strings.Contains(p.LabelTemplate, "${") {
		errs.Add("label_template", "Label template must contain at least one of ${COUNT} or a material revision")
	}

	if p.LockBehavior != "" {
		validation.Inclusion(errs, "lock_behavior", []string{p.LockBehavior}, []string{LockOnFailure, UnlockWhenFinished, LockNone})
	}

	if p.UsesTemplate() && len(p.Stages) != 0 {
		errs.Add("template", "Pipeline must have either a template or stages, not both")
	} else if !p.UsesTemplate() && len(p.Stages) == 0 {
		errs.Add("stages", "Pipeline must have either a template or stages")
	}

	if len(p.Materials) == 0 {
		errs.Add("materials", "Pipeline must have at least one material")
	}

	return errs
}

// IsValid validates the pipeline and everything it contains.
func (p *Pipeline) IsValid() bool {
	return p.ValidateAll().IsEmpty()
}

// ValidateAll returns every error in the pipeline's object graph keyed by path.
func (p *Pipeline) ValidateAll() validation.Report {
	report := validation.Report{}
	p.CollectErrors("", report)
	return report
}

func (p *Pipeline) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, p.Validate())

	collections.CollectErrors(p.Parameters, prefix, "parameters", report)
	collections.CollectErrors(p.EnvironmentVariables, prefix, "environment_variables", report)
	collections.CollectErrors(p.Materials, prefix, "materials", report)
	collections.CollectErrors(p.Stages, prefix, "stages", report)

	if p.TrackingTool != nil {
		p.TrackingTool.CollectErrors(validation.Path(prefix, "tracking_tool"), report)
	}

	if p.Timer != nil {
		p.Timer.CollectErrors(validation.Path(prefix, "timer"), report)
	}
}

// Parameter is a pipeline parameter, referenced in the pipeline as #{name}.
type Parameter struct {
	Validatable
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Parameters = collections.HasMany[*Parameter]

func (p *Parameter) GetName() string {
	return p.Name
}

func (p *Parameter) Validate() *validation.Errors {
	errs := p.resetErrors()
	if validation.Presence(errs, "name", p.Name) {
		validation.IdFormat(errs, "name", p.Name)
	}
	return errs
}

func (p *Parameter) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, p.Validate())
}

type TrackingToolAttributes struct {
	UrlPattern string `json:"url_pattern"`
	Regex      string `json:"regex"`
}

// TrackingTool links commit messages matching Regex to an issue tracker.
type TrackingTool struct {
	Validatable
	Type       string                 `json:"type"`
	Attributes TrackingToolAttributes `json:"attributes"`
}

func NewTrackingTool(urlPattern string, regex string) *TrackingTool {
	return &TrackingTool{Type: "generic", Attributes: TrackingToolAttributes{UrlPattern: urlPattern, Regex: regex}}
}

// Link returns the issue tracker link for an issue id.
func (t *TrackingTool) Link(id string) string {
	return strings.ReplaceAll(t.Attributes.UrlPattern, trackingToolIdPlaceholder, id)
}

func (t *TrackingTool) Validate() *validation.Errors {
	errs := t.resetErrors()

	validation.Presence(errs, "regex", t.Attributes.Regex)

	if validation.Presence(errs, "url_pattern", t.Attributes.UrlPattern) {
		if !strings.Contains(t.Attributes.UrlPattern, trackingToolIdPlaceholder) {
			errs.Add("url_pattern", "Url pattern must contain ${ID}")
		} else {
			validation.HttpUrl(errs, "url_pattern", t.Link("1"))
		}
	}

	return errs
}

func (t *TrackingTool) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, t.Validate())
}

// Timer triggers the pipeline on a cron schedule.
type Timer struct {
	Validatable
	Spec          string `json:"spec"`
	OnlyOnChanges bool   `json:"only_on_changes"`
}

func (t *Timer) Validate() *validation.Errors {
	errs := t.resetErrors()

	if validation.Presence(errs, "spec", t.Spec) && len(strings.Fields(t.Spec)) < 6 {
		errs.Add("spec", "Spec must be a quartz cron expression with at least six fields")
	}

	return errs
}

func (t *Timer) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, t.Validate())
}
