package gocd

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/collections"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
)

const (
	ApprovalSuccess = "success"
	ApprovalManual  = "manual"
)

type Authorization struct {
	Users []string `json:"users"`
	Roles []string `json:"roles"`
}

// Approval decides whether a stage is triggered automatically when the previous stage passes.
type Approval struct {
	Type               string         `json:"type"`
	AllowOnlyOnSuccess bool           `json:"allow_only_on_success"`
	Authorization      *Authorization `json:"authorization,omitempty"`
}

func (a *Approval) IsManual() bool {
	return a != nil && a.Type == ApprovalManual
}

type Stage struct {
	Validatable
	Name                  string               `json:"name"`
	FetchMaterials        bool                 `json:"fetch_materials"`
	CleanWorkingDirectory bool                 `json:"clean_working_directory"`
	NeverCleanupArtifacts bool                 `json:"never_cleanup_artifacts"`
	Approval              *Approval            `json:"approval,omitempty"`
	EnvironmentVariables  EnvironmentVariables `json:"environment_variables"`
	Jobs                  Jobs                 `json:"jobs"`
}

type Stages = collections.HasMany[*Stage]

func NewStage(name string, jobs ...*Job) *Stage {
	return &Stage{
		Name:                 name,
		FetchMaterials:       true,
		Approval:             &Approval{Type: ApprovalSuccess, Authorization: &Authorization{Users: []string{}, Roles: []string{}}},
		EnvironmentVariables: EnvironmentVariables{},
		Jobs:                 jobs,
	}
}

func (s *Stage) GetName() string {
	return s.Name
}

func (s *Stage) Validate() *validation.Errors {
	errs := s.resetErrors()

	if validation.Presence(errs, "name", s.Name) {
		validation.IdFormat(errs, "name", s.Name)
	}

	if len(s.Jobs) == 0 {
		errs.Add("jobs", "Stage must have at least one job")
	}

	if s.Approval != nil && s.Approval.Type != ApprovalSuccess && s.Approval.Type != ApprovalManual {
		errs.Add("approval", validation.MustBeOneOf("Approval type", []string{ApprovalSuccess, ApprovalManual}))
	}

	return errs
}

func (s *Stage) IsValid() bool {
	report := validation.Report{}
	s.CollectErrors("", report)
	return report.IsEmpty()
}

func (s *Stage) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, s.Validate())
	collections.CollectErrors(s.EnvironmentVariables, prefix, "environment_variables", report)
	collections.CollectErrors(s.Jobs, prefix, "jobs", report)
}
