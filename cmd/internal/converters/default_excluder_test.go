package converters

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"testing"
)

func TestExcludeNone(t *testing.T) {
	excluder := DefaultExcluder{}

	if excluder.IsResourceExcluded("resource", false, nil, nil) {
		t.Fatalf("Resource must not be excluded")
	}
}

func TestExcludeAll(t *testing.T) {
	excluder := DefaultExcluder{}

	if !excluder.IsResourceExcluded("resource", true, nil, nil) {
		t.Fatalf("Resource must be excluded")
	}
}

func TestExcludeByName(t *testing.T) {
	excluder := DefaultExcluder{}

	if !excluder.IsResourceExcluded("resource", false, []string{"resource"}, nil) {
		t.Fatalf("Resource must be excluded")
	}

	if excluder.IsResourceExcluded("resource", false, []string{"blah"}, nil) {
		t.Fatalf("Resource must not be excluded")
	}

	if excluder.IsResourceExcluded("resource", false, []string{""}, nil) {
		t.Fatalf("Resource must not be excluded")
	}
}

func TestExcludeByNameException(t *testing.T) {
	excluder := DefaultExcluder{}

	if excluder.IsResourceExcluded("resource", false, nil, []string{"resource"}) {
		t.Fatalf("Resource must not be excluded")
	}

	if !excluder.IsResourceExcluded("resource", false, nil, []string{"blah"}) {
		t.Fatalf("Resource must be excluded")
	}
}

func TestExcludeByEmptyNameException(t *testing.T) {
	excluder := DefaultExcluder{}

	if excluder.IsResourceExcluded("resource", false, nil, []string{}) {
		t.Fatalf("Resource must not be excluded")
	}

	if !excluder.IsResourceExcluded("resource", false, []string{"resource"}, []string{}) {
		t.Fatalf("Resource must be excluded")
	}
}

func TestExcludeByBlankNameException(t *testing.T) {
	excluder := DefaultExcluder{}

	if !excluder.IsResourceExcluded("resource", false, nil, []string{""}) {
		t.Fatalf("Resource must be excluded")
	}
}

func TestExcludeByNameAndException(t *testing.T) {
	excluder := DefaultExcluder{}

	if !excluder.IsResourceExcluded("resource", false, []string{"resource"}, []string{"resource"}) {
		t.Fatalf("Resource must be excluded")
	}

	if !excluder.IsResourceExcluded("resource", false, []string{"resource"}, []string{"blah"}) {
		t.Fatalf("Resource must be excluded")
	}
}

func TestEmptyName(t *testing.T) {
	excluder := DefaultExcluder{}

	if !excluder.IsResourceExcluded("", false, []string{}, []string{}) {
		t.Fatalf("Resource must be excluded")
	}
}

func TestExcludeByRegex(t *testing.T) {
	excluder := DefaultExcluder{}

	if !excluder.IsResourceExcludedWithRegex("build-linux", false, nil, []string{"^build-.*"}, nil) {
		t.Fatalf("Resource must be excluded")
	}

	if excluder.IsResourceExcludedWithRegex("deploy-linux", false, nil, []string{"^build-.*"}, nil) {
		t.Fatalf("Resource must not be excluded")
	}

	if excluder.IsResourceExcludedWithRegex("deploy-linux", false, nil, []string{"(invalid"}, nil) {
		t.Fatalf("Invalid regexes must be ignored")
	}

	if !excluder.IsResourceExcludedWithRegex("deploy-linux", false, []string{"deploy-linux"}, []string{"^build-.*"}, nil) {
		t.Fatalf("Resource must be excluded by name")
	}
}

func TestExcludeByOrigin(t *testing.T) {
	excluder := DefaultExcluder{}
	configRepo := &gocd.Origin{Type: gocd.OriginConfigRepo, Id: "repo1"}

	if !excluder.IsOriginExcluded(configRepo, true) {
		t.Fatalf("Config repo resources must be excluded")
	}

	if excluder.IsOriginExcluded(configRepo, false) {
		t.Fatalf("Config repo resources must only be excluded when requested")
	}

	if excluder.IsOriginExcluded(gocd.LocalOrigin(), true) || excluder.IsOriginExcluded(nil, true) {
		t.Fatalf("Local resources must not be excluded")
	}
}
