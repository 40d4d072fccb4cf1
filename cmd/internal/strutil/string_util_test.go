package strutil

import "testing"

func TestEmptyIfNil(t *testing.T) {
	emptyString := ""
	notEmptyString := "test"

	if EmptyIfNil(&emptyString) != "" {
		t.Fatalf("result should have been empty")
	}

	if EmptyIfNil(nil) != "" {
		t.Fatalf("result should have been empty")
	}

	if EmptyIfNil(&notEmptyString) == "" {
		t.Fatalf("result should not have been nil")
	}
}

func TestNilIfEmpty(t *testing.T) {
	emptyString := ""
	notEmptyString := "test"

	if NilIfEmpty(emptyString) != nil {
		t.Fatalf("result should have been nil")
	}

	if NilIfEmpty(notEmptyString) == nil {
		t.Fatalf("result should not have been nil")
	}
}

func TestDefaultIfEmpty(t *testing.T) {
	if DefaultIfEmpty("", "default") != "default" {
		t.Fatalf("result should have been default")
	}

	if DefaultIfEmpty("notempty", "default") != "notempty" {
		t.Fatalf("result should have been notempty")
	}
}

func TestEnsureSuffix(t *testing.T) {
	if EnsureSuffix("test!", "!") != "test!" {
		t.Fatalf("result should have been test!")
	}

	if EnsureSuffix("test", "!") != "test!" {
		t.Fatalf("result should have been test!")
	}

	if EnsureSuffix("test", "blah") != "testblah" {
		t.Fatalf("result should have been testblah")
	}

	if EnsureSuffix("test! ", "!") != "test! !" {
		t.Fatalf("result should have been test! !")
	}

	if EnsureSuffix(" ", "!") != " !" {
		t.Fatalf("result should have been !")
	}
}

func TestStrPointer(t *testing.T) {
	if *StrPointer("gocd") != "gocd" {
		t.Fatalf("result should have pointed to gocd")
	}
}
