package collections

import (
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"github.com/google/go-cmp/cmp"
	"testing"
)

type testEntity struct {
	name   string
	errors *validation.Errors
}

func newTestEntity(name string) *testEntity {
	return &testEntity{name: name, errors: validation.NewErrors()}
}

func (e *testEntity) GetName() string {
	return e.name
}

func (e *testEntity) Errors() *validation.Errors {
	return e.errors
}

func (e *testEntity) CollectErrors(prefix string, report validation.Report) {
	validation.Presence(e.errors, "name", e.name)
	report.Collect(prefix, e.errors)
}

func TestHasManyFindIsCaseInsensitive(t *testing.T) {
	items := HasMany[*testEntity]{}
	items.Add(newTestEntity("Build"))

	item, found := items.Find(" build ")
	if !found || item.GetName() != "Build" {
		t.Fatalf("expected to find Build, got %v %v", item, found)
	}

	if items.Contains("deploy") {
		t.Fatalf("deploy should not be found")
	}
}

func TestHasManyRemove(t *testing.T) {
	items := HasMany[*testEntity]{newTestEntity("build"), newTestEntity("deploy")}

	items.Remove("BUILD")
	items.Remove("missing")

	if diff := cmp.Diff([]string{"deploy"}, items.Names()); diff != "" {
		t.Fatalf("unexpected names (-want +got):\n%s", diff)
	}
}

func TestDuplicateIndexesMarksEveryMember(t *testing.T) {
	items := HasMany[*testEntity]{
		newTestEntity("build"),
		newTestEntity("test"),
		newTestEntity("Build"),
		newTestEntity(""),
		newTestEntity(""),
	}

	if diff := cmp.Diff([]int{0, 2}, items.DuplicateIndexes()); diff != "" {
		t.Fatalf("unexpected duplicates (-want +got):\n%s", diff)
	}

	ValidateUniqueness(items)

	for _, i := range []int{0, 2} {
		if !items[i].Errors().HasErrors("name") {
			t.Fatalf("expected item %d to be flagged as a duplicate", i)
		}
	}

	if items[1].Errors().HasErrors("name") {
		t.Fatalf("unique item should not be flagged")
	}
}

func TestCollectErrorsUsesIndexedPaths(t *testing.T) {
	items := HasMany[*testEntity]{newTestEntity("compile"), newTestEntity("compile"), newTestEntity("")}
	report := validation.Report{}

	CollectErrors(items, "stages[0]", "jobs", report)

	want := []string{"stages[0].jobs[0].name", "stages[0].jobs[1].name", "stages[0].jobs[2].name"}
	if diff := cmp.Diff(want, report.Paths()); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{validation.Duplicate("Name")}, report["stages[0].jobs[1].name"]); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%s", diff)
	}
}
