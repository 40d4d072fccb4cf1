package args

import (
	"bytes"
	"errors"
	"flag"
	"github.com/spf13/viper"
	"k8s.io/utils/strings/slices"
	"net/url"
	"os"
	"regexp"
	"strings"
)

const (
	FormatHcl  = "hcl"
	FormatYaml = "yaml"
)

type Arguments struct {
	ConfigFile     string
	ConfigPath     string
	Version        bool
	Url            string
	Username       string
	Password       string
	Token          string
	Destination    string
	Console        bool
	Format         string
	LogLevel       string
	MaxConcurrency int
	ValidateOnly   bool
	TestMaterials  bool

	BackendBlock    string
	ProviderVersion string
	ExcludeProvider bool

	Environments      StringSliceArgs
	AddPipelines      StringSliceArgs
	RemovePipelines   StringSliceArgs
	AddAgents         StringSliceArgs
	RemoveAgents      StringSliceArgs
	CreateEnvironment bool
	DeleteEnvironment bool

	ExcludeConfigRepoResources bool

	ExcludeAllEnvironments    bool
	ExcludeEnvironments       StringSliceArgs
	ExcludeEnvironmentsRegex  StringSliceArgs
	ExcludeEnvironmentsExcept StringSliceArgs

	ExcludeAllPipelines    bool
	ExcludePipelines       StringSliceArgs
	ExcludePipelinesRegex  StringSliceArgs
	ExcludePipelinesExcept StringSliceArgs
}

type StringSliceArgs []string

func (i *StringSliceArgs) String() string {
	return "A collection of strings passed as arguments"
}

func (i *StringSliceArgs) Set(value string) error {
	trimmed := strings.TrimSpace(value)

	if len(trimmed) == 0 {
		return nil
	}

	*i = append(*i, trimmed)
	return nil
}

// HasEnvironmentEdits is true when the arguments change environments rather than only exporting them.
func (arguments *Arguments) HasEnvironmentEdits() bool {
	return arguments.CreateEnvironment ||
		arguments.DeleteEnvironment ||
		len(arguments.AddPipelines) != 0 ||
		len(arguments.RemovePipelines) != 0 ||
		len(arguments.AddAgents) != 0 ||
		len(arguments.RemoveAgents) != 0
}

// ParseArgs reads the command line, the config file and the GOCDTERRA_* environment variables. Credentials
// fall back to GOCD_USERNAME, GOCD_PASSWORD and GOCD_TOKEN.
func ParseArgs(args []string) (Arguments, string, error) {
	return parseArgs(args, true)
}

// ParseRequestArgs reads only the command line and the config file. It is used for configs supplied by a
// remote caller, which must not pick up the credentials or settings of the process environment.
func ParseRequestArgs(args []string) (Arguments, string, error) {
	return parseArgs(args, false)
}

func parseArgs(args []string, useEnvironment bool) (Arguments, string, error) {
	flags := flag.NewFlagSet("gocdterra", flag.ContinueOnError)
	var buf bytes.Buffer
	flags.SetOutput(&buf)

	arguments := Arguments{}

	flags.StringVar(&arguments.ConfigFile, "configFile", "gocdterra", "The name of the configuration file to use. Do not include the extension. Defaults to gocdterra")
	flags.StringVar(&arguments.ConfigPath, "configPath", ".", "The path of the configuration file to use. Defaults to the current directory")
	flags.BoolVar(&arguments.Version, "version", false, "Print the version")
	flags.StringVar(&arguments.Url, "url", "", "The GoCD server URL, including the context path, e.g. https://ci.example.org/go")
	flags.StringVar(&arguments.Username, "username", "", "The GoCD username")
	flags.StringVar(&arguments.Password, "password", "", "The GoCD password")
	flags.StringVar(&arguments.Token, "token", "", "A GoCD personal access token. This takes precedence over the username and password.")
	flags.StringVar(&arguments.Destination, "dest", "", "The directory to place the generated files in")
	flags.BoolVar(&arguments.Console, "console", false, "Dump the generated files to the console")
	flags.StringVar(&arguments.Format, "format", FormatHcl, "The output format. One of hcl or yaml. Defaults to hcl")
	flags.StringVar(&arguments.LogLevel, "logLevel", "info", "The log level. One of debug, info, warn or error. Defaults to info")
	flags.IntVar(&arguments.MaxConcurrency, "maxConcurrency", 10, "The maximum number of pipeline configs read from the server at once. Defaults to 10")
	flags.BoolVar(&arguments.ValidateOnly, "validateOnly", false, "Validate the pipelines and environments and write a report rather than exporting them")
	flags.BoolVar(&arguments.TestMaterials, "testMaterials", false, "With -validateOnly, ask the server to check out each source control material and report the ones that fail")

	flags.StringVar(&arguments.BackendBlock, "terraformBackend", "", "Specifies the backend type to be added to the exported Terraform configuration.")
	flags.StringVar(&arguments.ProviderVersion, "providerVersion", "", "Specifies the GoCD Terraform provider version.")
	flags.BoolVar(&arguments.ExcludeProvider, "excludeProvider", false, "Exclude the provider from the exported Terraform configuration files.")

	flags.Var(&arguments.Environments, "environment", "An environment to export or edit. Specify this argument multiple times to select multiple environments.")
	flags.Var(&arguments.AddPipelines, "addPipeline", "A pipeline to associate with each environment selected by -environment. Specify this argument multiple times to add multiple pipelines.")
	flags.Var(&arguments.RemovePipelines, "removePipeline", "A pipeline to remove from each environment selected by -environment. Specify this argument multiple times to remove multiple pipelines.")
	flags.Var(&arguments.AddAgents, "addAgent", "The uuid or hostname of an agent to associate with each environment selected by -environment. Specify this argument multiple times to add multiple agents.")
	flags.Var(&arguments.RemoveAgents, "removeAgent", "The uuid or hostname of an agent to remove from each environment selected by -environment. Specify this argument multiple times to remove multiple agents.")
	flags.BoolVar(&arguments.CreateEnvironment, "createEnvironment", false, "Create each environment selected by -environment if it does not exist")
	flags.BoolVar(&arguments.DeleteEnvironment, "deleteEnvironment", false, "Delete each environment selected by -environment")

	flags.BoolVar(&arguments.ExcludeConfigRepoResources, "excludeConfigRepoResources", false, "Exclude pipelines and environments that are defined in config repositories")

	flags.BoolVar(&arguments.ExcludeAllEnvironments, "excludeAllEnvironments", false, "Exclude all environments from being exported.")
	flags.Var(&arguments.ExcludeEnvironments, "excludeEnvironments", "An environment to exclude from the export. Specify this argument multiple times to exclude multiple environments.")
	flags.Var(&arguments.ExcludeEnvironmentsRegex, "excludeEnvironmentsRegex", "An environment to exclude from the export based on a regex match. Specify this argument multiple times to add multiple regexes.")
	flags.Var(&arguments.ExcludeEnvironmentsExcept, "excludeEnvironmentsExcept", "All environments except those defined with excludeEnvironmentsExcept are excluded. Specify this argument multiple times to include multiple environments.")

	flags.BoolVar(&arguments.ExcludeAllPipelines, "excludeAllPipelines", false, "Exclude all pipelines from being exported.")
	flags.Var(&arguments.ExcludePipelines, "excludePipelines", "A pipeline to exclude from the export. Specify this argument multiple times to exclude multiple pipelines.")
	flags.Var(&arguments.ExcludePipelinesRegex, "excludePipelinesRegex", "A pipeline to exclude from the export based on a regex match. Specify this argument multiple times to add multiple regexes.")
	flags.Var(&arguments.ExcludePipelinesExcept, "excludePipelinesExcept", "All pipelines except those defined with excludePipelinesExcept are excluded. Specify this argument multiple times to include multiple pipelines.")

	err := flags.Parse(args)

	if err != nil {
		return Arguments{}, buf.String(), err
	}

	err = overrideArgs(flags, arguments.ConfigPath, arguments.ConfigFile, useEnvironment)

	if err != nil {
		return Arguments{}, "", err
	}

	if useEnvironment {
		if arguments.Username == "" {
			arguments.Username = os.Getenv("GOCD_USERNAME")
		}

		if arguments.Password == "" {
			arguments.Password = os.Getenv("GOCD_PASSWORD")
		}

		if arguments.Token == "" {
			arguments.Token = os.Getenv("GOCD_TOKEN")
		}
	}

	if arguments.Version {
		return arguments, buf.String(), nil
	}

	if err := arguments.Validate(); err != nil {
		return Arguments{}, "", err
	}

	return arguments, buf.String(), nil
}

// Validate checks the combinations of arguments that can not be expressed by the flag definitions.
func (arguments *Arguments) Validate() error {
	var validationErrors error

	if arguments.Url == "" {
		validationErrors = errors.Join(validationErrors, errors.New("the -url argument must be defined"))
	} else if parsedUrl, err := url.Parse(arguments.Url); err != nil || (parsedUrl.Scheme != "http" && parsedUrl.Scheme != "https") || parsedUrl.Host == "" {
		validationErrors = errors.Join(validationErrors, errors.New("the -url argument must be an http or https url"))
	}

	if !slices.Contains([]string{FormatHcl, FormatYaml}, arguments.Format) {
		validationErrors = errors.Join(validationErrors, errors.New("the -format argument must be one of hcl or yaml"))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, arguments.LogLevel) {
		validationErrors = errors.Join(validationErrors, errors.New("the -logLevel argument must be one of debug, info, warn or error"))
	}

	if arguments.MaxConcurrency <= 0 {
		validationErrors = errors.Join(validationErrors, errors.New("the -maxConcurrency argument must be greater than zero"))
	}

	if arguments.HasEnvironmentEdits() && len(arguments.Environments) == 0 {
		validationErrors = errors.Join(validationErrors, errors.New("environment edits require at least one -environment argument"))
	}

	if arguments.TestMaterials && !arguments.ValidateOnly {
		validationErrors = errors.Join(validationErrors, errors.New("the -testMaterials argument requires -validateOnly"))
	}

	if arguments.CreateEnvironment && arguments.DeleteEnvironment {
		validationErrors = errors.Join(validationErrors, errors.New("the -createEnvironment and -deleteEnvironment arguments can not be used together"))
	}

	for _, pipeline := range arguments.AddPipelines {
		if slices.Contains(arguments.RemovePipelines, pipeline) {
			validationErrors = errors.Join(validationErrors, errors.New("the pipeline "+pipeline+" can not be both added and removed"))
		}
	}

	for _, agent := range arguments.AddAgents {
		if slices.Contains(arguments.RemoveAgents, agent) {
			validationErrors = errors.Join(validationErrors, errors.New("the agent "+agent+" can not be both added and removed"))
		}
	}

	for _, expression := range append(append([]string{}, arguments.ExcludeEnvironmentsRegex...), arguments.ExcludePipelinesRegex...) {
		if _, err := regexp.Compile(expression); err != nil {
			validationErrors = errors.Join(validationErrors, errors.New("the exclusion regex "+expression+" is invalid: "+err.Error()))
		}
	}

	return validationErrors
}

// Inspired by https://github.com/carolynvs/stingoftheviper
// Viper needs manual handling to implement reading settings from env vars, config files, and from the command line
func overrideArgs(flags *flag.FlagSet, configPath string, configFile string, useEnvironment bool) error {
	v := viper.New()

	// Set the base name of the config file, without the file extension.
	v.SetConfigName(configFile)

	// Set as many paths as you like where viper should look for the
	// config file. We are only looking in the current working directory.
	v.AddConfigPath(configPath)

	// Attempt to read the config file, gracefully ignoring errors
	// caused by a config file not being found. Return an error
	// if we cannot parse the config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if there isn't a config file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	if !useEnvironment {
		return bindFlags(flags, v)
	}

	// When we bind flags to environment variables expect that the
	// environment variables are prefixed, e.g. a flag like -url
	// binds to an environment variable GOCDTERRA_URL. This helps
	// avoid conflicts.
	v.SetEnvPrefix("gocdterra")

	// Environment variables can't have dashes in them, so bind them to their equivalent
	// keys with underscores
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Bind to environment variables
	v.AutomaticEnv()

	// Bind the current command's flags to viper
	return bindFlags(flags, v)
}

// Bind each flag to its associated viper configuration (config file and environment variable)
func bindFlags(flags *flag.FlagSet, v *viper.Viper) (funErr error) {
	var funcError error = nil

	flags.VisitAll(func(allFlags *flag.Flag) {
		defined := false
		flags.Visit(func(definedFlag *flag.Flag) {
			if definedFlag.Name == allFlags.Name && definedFlag.Name != "configFile" && definedFlag.Name != "configPath" {
				defined = true
			}
		})

		if !defined && v.IsSet(allFlags.Name) {
			configName := strings.ReplaceAll(allFlags.Name, "-", "")

			for _, value := range v.GetStringSlice(configName) {
				err := flags.Set(allFlags.Name, value)
				funcError = errors.Join(funcError, err)
			}
		}
	})

	return funcError
}
