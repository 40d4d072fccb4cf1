package terraform

type TerraformEnvironment struct {
	Type                 string                         `hcl:"type,label"`
	Name                 string                         `hcl:"name,label"`
	ResourceName         string                         `hcl:"name"`
	Agents               *[]string                      `hcl:"agents"`
	EnvironmentVariables []TerraformEnvironmentVariable `hcl:"environment_variables,block"`
}

// TerraformEnvironmentAssociation links a pipeline to an environment. Associations are separate resources so
// pipelines defined elsewhere can be linked without being managed by this module.
type TerraformEnvironmentAssociation struct {
	Type        string `hcl:"type,label"`
	Name        string `hcl:"name,label"`
	Environment string `hcl:"environment"`
	Pipeline    string `hcl:"pipeline"`
}

type TerraformEnvironmentVariable struct {
	Name           string  `hcl:"name"`
	Value          *string `hcl:"value"`
	EncryptedValue *string `hcl:"encrypted_value"`
	Secure         bool    `hcl:"secure"`
}
