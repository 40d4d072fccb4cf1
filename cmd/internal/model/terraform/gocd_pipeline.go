package terraform

type TerraformPipeline struct {
	Type                 string                         `hcl:"type,label"`
	Name                 string                         `hcl:"name,label"`
	ResourceName         string                         `hcl:"name"`
	Group                *string                        `hcl:"group"`
	LabelTemplate        string                         `hcl:"label_template"`
	LockBehavior         string                         `hcl:"lock_behavior"`
	Template             *string                        `hcl:"template"`
	Parameters           *map[string]string             `hcl:"parameters"`
	EnvironmentVariables []TerraformEnvironmentVariable `hcl:"environment_variables,block"`
	TrackingTool         *TerraformTrackingTool         `hcl:"tracking_tool,block"`
	Timer                *TerraformTimer                `hcl:"timer,block"`
}

// TerraformMaterial is encoded as a "materials" block of its own, so dependency materials can reference the
// upstream pipeline resource.
type TerraformMaterial struct {
	Type       string                      `hcl:"type"`
	Attributes TerraformMaterialAttributes `hcl:"attributes,block"`
}

// TerraformMaterialAttributes is the union of the attributes of every material type. Only the fields that
// apply to the material type are set.
type TerraformMaterialAttributes struct {
	Name                *string   `hcl:"name"`
	Url                 *string   `hcl:"url"`
	Branch              *string   `hcl:"branch"`
	Destination         *string   `hcl:"destination"`
	AutoUpdate          *bool     `hcl:"auto_update"`
	Filter              *[]string `hcl:"filter"`
	InvertFilter        *bool     `hcl:"invert_filter"`
	ShallowClone        *bool     `hcl:"shallow_clone"`
	SubmoduleFolder     *string   `hcl:"submodule_folder"`
	CheckExternals      *bool     `hcl:"check_externals"`
	Port                *string   `hcl:"port"`
	UseTickets          *bool     `hcl:"use_tickets"`
	View                *string   `hcl:"view"`
	Domain              *string   `hcl:"domain"`
	ProjectPath         *string   `hcl:"project_path"`
	Username            *string   `hcl:"username"`
	EncryptedPassword   *string   `hcl:"encrypted_password"`
	Pipeline            *string   `hcl:"pipeline"`
	Stage               *string   `hcl:"stage"`
	IgnoreForScheduling *bool     `hcl:"ignore_for_scheduling"`
	Ref                 *string   `hcl:"ref"`
}

type TerraformTrackingTool struct {
	UrlPattern string `hcl:"url_pattern"`
	Regex      string `hcl:"regex"`
}

type TerraformTimer struct {
	Spec          string `hcl:"spec"`
	OnlyOnChanges bool   `hcl:"only_on_changes"`
}
