package gocd

import (
	"encoding/json"
	"fmt"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/collections"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"golang.org/x/exp/slices"
	"net/url"
	"regexp"
	"strings"
)

const (
	MaterialTypeGit        = "git"
	MaterialTypeSvn        = "svn"
	MaterialTypeMercurial  = "hg"
	MaterialTypePerforce   = "p4"
	MaterialTypeTfs        = "tfs"
	MaterialTypeDependency = "dependency"
	MaterialTypePackage    = "package"
	MaterialTypePlugin     = "plugin"
)

var scmMaterialTypes = []string{MaterialTypeGit, MaterialTypeSvn, MaterialTypeMercurial, MaterialTypePerforce, MaterialTypeTfs}

const DefaultGitBranch = "master"

const destinationMessage = "Destination must be a relative path within the pipeline's working directory"

const urlCredentialsMessage = "URL credentials must be set in either the URL or the username+password fields, but not both"

// relativePath matches a path that does not start with a space or dot (other than "./.name" or ".name")
// and does not end with a space or dot. Absolute paths are rejected separately.
var relativePath = regexp.MustCompile(`^((([.]/)?[.][^. ]+)|([^. ].+[^. ])|([^. ][^. ])|([^. ]))$`)

// IsRelativeSubPath reports whether path stays inside the pipeline's working directory.
func IsRelativeSubPath(path string) bool {
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		return false
	}

	for _, segment := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return false
		}
	}

	return relativePath.MatchString(path)
}

// Material is a tagged union over the material types. Attributes holds one of GitMaterial, SvnMaterial,
// MercurialMaterial, PerforceMaterial, TfsMaterial, DependencyMaterial, PackageMaterial or PluginMaterial.
type Material struct {
	Type       string
	Attributes MaterialAttributes
}

type Materials = collections.HasMany[*Material]

type MaterialAttributes interface {
	Common() *MaterialCommon
	// Location is the most identifying attribute of the material, such as the URL of a repository.
	Location() string
	validate(errs *validation.Errors)
}

type MaterialCommon struct {
	Validatable
	Name string `json:"name,omitempty"`
}

func (c *MaterialCommon) Common() *MaterialCommon {
	return c
}

type Filter struct {
	Ignore []string `json:"ignore"`
}

type wireMaterial struct {
	Type       string              `json:"type"`
	Attributes json.RawMessage     `json:"attributes"`
	Errors     map[string][]string `json:"errors,omitempty"`
}

func NewMaterial(attributes MaterialAttributes) *Material {
	material := &Material{Attributes: attributes}

	switch attributes.(type) {
	case *GitMaterial:
		material.Type = MaterialTypeGit
	case *SvnMaterial:
		material.Type = MaterialTypeSvn
	case *MercurialMaterial:
		material.Type = MaterialTypeMercurial
	case *PerforceMaterial:
		material.Type = MaterialTypePerforce
	case *TfsMaterial:
		material.Type = MaterialTypeTfs
	case *DependencyMaterial:
		material.Type = MaterialTypeDependency
	case *PackageMaterial:
		material.Type = MaterialTypePackage
	case *PluginMaterial:
		material.Type = MaterialTypePlugin
	}

	return material
}

// newMaterialAttributes returns empty attributes carrying the server side defaults.
func newMaterialAttributes(materialType string) (MaterialAttributes, error) {
	switch materialType {
	case MaterialTypeGit:
		return &GitMaterial{ScmMaterial: ScmMaterial{AutoUpdate: true}, Branch: DefaultGitBranch}, nil
	case MaterialTypeSvn:
		return &SvnMaterial{ScmMaterial: ScmMaterial{AutoUpdate: true}}, nil
	case MaterialTypeMercurial:
		return &MercurialMaterial{ScmMaterial: ScmMaterial{AutoUpdate: true}}, nil
	case MaterialTypePerforce:
		return &PerforceMaterial{ScmMaterial: ScmMaterial{AutoUpdate: true}}, nil
	case MaterialTypeTfs:
		return &TfsMaterial{ScmMaterial: ScmMaterial{AutoUpdate: true}}, nil
	case MaterialTypeDependency:
		return &DependencyMaterial{}, nil
	case MaterialTypePackage:
		return &PackageMaterial{}, nil
	case MaterialTypePlugin:
		return &PluginMaterial{}, nil
	}

	return nil, fmt.Errorf("unknown material type %q", materialType)
}

func (m Material) MarshalJSON() ([]byte, error) {
	attributes, serverErrors, err := marshalAttributes(m.Attributes, &m.Attributes.Common().Validatable)

	if err != nil {
		return nil, err
	}

	return json.Marshal(wireMaterial{Type: m.Type, Attributes: attributes, Errors: serverErrors})
}

func (m *Material) UnmarshalJSON(data []byte) error {
	wire := wireMaterial{}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	attributes, err := newMaterialAttributes(wire.Type)
	if err != nil {
		return err
	}

	if len(wire.Attributes) != 0 {
		if err := json.Unmarshal(wire.Attributes, attributes); err != nil {
			return fmt.Errorf("failed to read the attributes of the %s material: %w", wire.Type, err)
		}
	}

	attributes.Common().mergeServerErrors(wire.Errors)

	m.Type = wire.Type
	m.Attributes = attributes
	return nil
}

// IsScm is true for the source control materials, which the server can check out in a connection test.
func (m *Material) IsScm() bool {
	return slices.Contains(scmMaterialTypes, m.Type)
}

func (m *Material) GetName() string {
	return m.Attributes.Common().Name
}

// DisplayName is the name of the material, falling back to its location when it is unnamed.
func (m *Material) DisplayName() string {
	if name := m.GetName(); name != "" {
		return name
	}

	return m.Attributes.Location()
}

func (m *Material) Errors() *validation.Errors {
	return m.Attributes.Common().Errors()
}

func (m *Material) Validate() *validation.Errors {
	errs := m.Attributes.Common().resetErrors()
	m.Attributes.validate(errs)
	return errs
}

func (m *Material) IsValid() bool {
	report := validation.Report{}
	m.CollectErrors("", report)
	return report.IsEmpty()
}

func (m *Material) CollectErrors(prefix string, report validation.Report) {
	report.Collect(prefix, m.Validate())
}

// ScmMaterial covers the attributes shared by the source control materials.
type ScmMaterial struct {
	MaterialCommon
	AutoUpdate        bool    `json:"auto_update"`
	Filter            *Filter `json:"filter,omitempty"`
	InvertFilter      bool    `json:"invert_filter"`
	Destination       string  `json:"destination,omitempty"`
	Username          string  `json:"username,omitempty"`
	Password          *string `json:"password,omitempty"`
	EncryptedPassword *string `json:"encrypted_password,omitempty"`
}

func (s *ScmMaterial) hasCredentials() bool {
	return s.Username != "" || s.Password != nil || s.EncryptedPassword != nil
}

func (s *ScmMaterial) validateScm(errs *validation.Errors, repositoryUrl string) {
	if s.Destination != "" && !IsRelativeSubPath(s.Destination) {
		errs.Add("destination", destinationMessage)
	}

	if s.Password != nil && s.EncryptedPassword != nil {
		errs.Add("password", "Password and encrypted password can not both be set")
	}

	if repositoryUrl != "" && s.hasCredentials() && urlHasCredentials(repositoryUrl) {
		errs.Add("url", urlCredentialsMessage)
	}
}

func urlHasCredentials(repositoryUrl string) bool {
	parsed, err := url.Parse(repositoryUrl)
	return err == nil && parsed.User != nil
}

type GitMaterial struct {
	ScmMaterial
	Url             string `json:"url"`
	Branch          string `json:"branch"`
	ShallowClone    bool   `json:"shallow_clone"`
	SubmoduleFolder string `json:"submodule_folder,omitempty"`
}

func (g *GitMaterial) Location() string {
	return g.Url
}

func (g *GitMaterial) validate(errs *validation.Errors) {
	validation.Presence(errs, "url", g.Url, validation.Label("URL"))
	g.validateScm(errs, g.Url)
}

type SvnMaterial struct {
	ScmMaterial
	Url            string `json:"url"`
	CheckExternals bool   `json:"check_externals"`
}

func (s *SvnMaterial) Location() string {
	return s.Url
}

func (s *SvnMaterial) validate(errs *validation.Errors) {
	validation.Presence(errs, "url", s.Url, validation.Label("URL"))
	s.validateScm(errs, s.Url)
}

type MercurialMaterial struct {
	ScmMaterial
	Url    string `json:"url"`
	Branch string `json:"branch,omitempty"`
}

func (h *MercurialMaterial) Location() string {
	return h.Url
}

func (h *MercurialMaterial) validate(errs *validation.Errors) {
	validation.Presence(errs, "url", h.Url, validation.Label("URL"))
	h.validateScm(errs, h.Url)
}

type PerforceMaterial struct {
	ScmMaterial
	Port       string `json:"port"`
	UseTickets bool   `json:"use_tickets"`
	View       string `json:"view"`
}

func (p *PerforceMaterial) Location() string {
	return p.Port
}

func (p *PerforceMaterial) validate(errs *validation.Errors) {
	validation.Presence(errs, "port", p.Port)
	validation.Presence(errs, "view", p.View)
	p.validateScm(errs, "")
}

type TfsMaterial struct {
	ScmMaterial
	Url         string `json:"url"`
	Domain      string `json:"domain"`
	ProjectPath string `json:"project_path"`
}

func (t *TfsMaterial) Location() string {
	return t.Url
}

func (t *TfsMaterial) validate(errs *validation.Errors) {
	validation.Presence(errs, "url", t.Url, validation.Label("URL"))
	validation.Presence(errs, "username", t.Username)
	validation.Presence(errs, "project_path", t.ProjectPath)
	t.validateScm(errs, t.Url)
}

type DependencyMaterial struct {
	MaterialCommon
	Pipeline            string `json:"pipeline"`
	Stage               string `json:"stage"`
	AutoUpdate          bool   `json:"auto_update"`
	IgnoreForScheduling bool   `json:"ignore_for_scheduling"`
}

func (d *DependencyMaterial) Location() string {
	return d.Pipeline + "/" + d.Stage
}

func (d *DependencyMaterial) validate(errs *validation.Errors) {
	validation.Presence(errs, "pipeline", d.Pipeline)
	validation.Presence(errs, "stage", d.Stage)
}

// PackageMaterial references a package defined in a package repository.
type PackageMaterial struct {
	MaterialCommon
	Ref string `json:"ref"`
}

func (p *PackageMaterial) Location() string {
	return p.Ref
}

func (p *PackageMaterial) validate(errs *validation.Errors) {
	validation.Presence(errs, "ref", p.Ref)
}

// PluginMaterial references a pluggable SCM.
type PluginMaterial struct {
	MaterialCommon
	Ref          string  `json:"ref"`
	Filter       *Filter `json:"filter,omitempty"`
	InvertFilter bool    `json:"invert_filter"`
	Destination  string  `json:"destination,omitempty"`
}

func (p *PluginMaterial) Location() string {
	return p.Ref
}

func (p *PluginMaterial) validate(errs *validation.Errors) {
	validation.Presence(errs, "ref", p.Ref)

	if p.Destination != "" && !IsRelativeSubPath(p.Destination) {
		errs.Add("destination", destinationMessage)
	}
}

// MaterialTestResult is the response of a connection check.
type MaterialTestResult struct {
	Success bool
	Message string
}
