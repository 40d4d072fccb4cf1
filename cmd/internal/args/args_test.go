package args

import (
	"github.com/google/go-cmp/cmp"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlagsCorrect(t *testing.T) {
	args, _, err := ParseArgs([]string{
		"-url",
		"http://example.org/go",
		"-username",
		"admin",
		"-password",
		"secret",
		"-dest",
		"/tmp",
		"-console",
	})

	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if args.Url != "http://example.org/go" {
		t.Fatalf("Url should have been http://example.org/go")
	}

	if args.Username != "admin" {
		t.Fatalf("Username should have been admin")
	}

	if args.Password != "secret" {
		t.Fatalf("Password should have been secret")
	}

	if args.Destination != "/tmp" {
		t.Fatalf("Destination should have been /tmp")
	}

	if !args.Console {
		t.Fatalf("Console should have been true")
	}

	if args.Format != FormatHcl || args.MaxConcurrency != 10 || args.LogLevel != "info" {
		t.Fatalf("Defaults were not applied")
	}
}

func TestParseRepeatedFlags(t *testing.T) {
	args, _, err := ParseArgs([]string{
		"-url",
		"https://example.org/go",
		"-environment",
		"prod",
		"-environment",
		" ",
		"-environment",
		"qa",
		"-addPipeline",
		"build",
		"-removeAgent",
		"agent-1",
	})

	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if diff := cmp.Diff(StringSliceArgs{"prod", "qa"}, args.Environments); diff != "" {
		t.Fatalf("unexpected environments (-want +got):\n%s", diff)
	}

	if !args.HasEnvironmentEdits() {
		t.Fatalf("Adding a pipeline is an environment edit")
	}
}

func TestParseFlagsEnvironmentVars(t *testing.T) {
	t.Setenv("GOCDTERRA_FORMAT", "yaml")
	t.Setenv("GOCD_TOKEN", "token-1")

	args, _, err := ParseArgs([]string{"-url", "https://example.org/go"})

	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if args.Format != FormatYaml {
		t.Fatalf("Format should have been read from GOCDTERRA_FORMAT")
	}

	if args.Token != "token-1" {
		t.Fatalf("Token should have been read from GOCD_TOKEN")
	}
}

func TestParseRequestArgsIgnoresEnvironment(t *testing.T) {
	t.Setenv("GOCDTERRA_FORMAT", "yaml")
	t.Setenv("GOCDTERRA_TOKEN", "token-1")
	t.Setenv("GOCD_TOKEN", "token-2")
	t.Setenv("GOCD_USERNAME", "admin")

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "request.json"), []byte(`{"url": "https://example.org/go", "password": "secret"}`), 0600); err != nil {
		t.Fatalf("failed to write the config file: %v", err)
	}

	args, _, err := ParseRequestArgs([]string{"-configFile", "request", "-configPath", dir})

	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if args.Url != "https://example.org/go" || args.Password != "secret" {
		t.Fatalf("The url and password should have been read from the config file, got %v", args)
	}

	if args.Format != FormatHcl {
		t.Fatalf("Format should not have been read from GOCDTERRA_FORMAT")
	}

	if args.Token != "" || args.Username != "" {
		t.Fatalf("Credentials should not have been read from the environment")
	}
}

func TestValidateArguments(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{"missing url", []string{}, "the -url argument must be defined"},
		{"bad url", []string{"-url", "ftp://example.org"}, "the -url argument must be an http or https url"},
		{"bad format", []string{"-url", "http://a", "-format", "json"}, "the -format argument must be one of hcl or yaml"},
		{"edits without environment", []string{"-url", "http://a", "-addAgent", "agent-1"}, "environment edits require at least one -environment argument"},
		{"create and delete", []string{"-url", "http://a", "-environment", "prod", "-createEnvironment", "-deleteEnvironment"}, "can not be used together"},
		{"add and remove", []string{"-url", "http://a", "-environment", "prod", "-addPipeline", "p1", "-removePipeline", "p1"}, "the pipeline p1 can not be both added and removed"},
		{"bad regex", []string{"-url", "http://a", "-excludePipelinesRegex", "("}, "the exclusion regex ( is invalid"},
		{"bad concurrency", []string{"-url", "http://a", "-maxConcurrency", "0"}, "the -maxConcurrency argument must be greater than zero"},
		{"material tests without validation", []string{"-url", "http://a", "-testMaterials"}, "the -testMaterials argument requires -validateOnly"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := ParseArgs(test.args)

			if err == nil {
				t.Fatalf("Should have returned an error")
			}

			if !strings.Contains(err.Error(), test.message) {
				t.Fatalf("Expected %q in %q", test.message, err.Error())
			}
		})
	}
}

func TestVersionSkipsValidation(t *testing.T) {
	args, _, err := ParseArgs([]string{"-version"})

	if err != nil {
		t.Fatalf("Should not have returned an error: %v", err)
	}

	if !args.Version {
		t.Fatalf("Version should have been true")
	}
}

func TestUnknownFlag(t *testing.T) {
	_, output, err := ParseArgs([]string{"-space", "Spaces-1"})

	if err == nil {
		t.Fatalf("Should have returned an error")
	}

	if !strings.Contains(output, "flag provided but not defined") {
		t.Fatalf("The usage should have been returned")
	}
}
