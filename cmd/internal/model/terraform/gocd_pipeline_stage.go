package terraform

// TerraformPipelineStage is encoded without its jobs. The jobs attribute is written separately as a list of
// jsonencode() calls holding the job definitions the admin API accepts.
type TerraformPipelineStage struct {
	Type                  string                         `hcl:"type,label"`
	Name                  string                         `hcl:"name,label"`
	ResourceName          string                         `hcl:"name"`
	Pipeline              string                         `hcl:"pipeline"`
	FetchMaterials        bool                           `hcl:"fetch_materials"`
	CleanWorkingDirectory bool                           `hcl:"clean_working_directory"`
	NeverCleanupArtifacts bool                           `hcl:"never_cleanup_artifacts"`
	ManualApproval        bool                           `hcl:"manual_approval"`
	AllowOnlyOnSuccess    bool                           `hcl:"allow_only_on_success"`
	AuthorizationUsers    *[]string                      `hcl:"authorization_users"`
	AuthorizationRoles    *[]string                      `hcl:"authorization_roles"`
	EnvironmentVariables  []TerraformEnvironmentVariable `hcl:"environment_variables,block"`
}
