package validation

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeRequested_AbsentFails(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		if _, err := NormalizeRequested(raw); !errors.Is(err, ErrScopesRequired) {
			t.Fatalf("raw %q: expected ErrScopesRequired, got %v", raw, err)
		}
	}
}

func TestNormalizeRequested_UnionsDefaults(t *testing.T) {
	got, err := NormalizeRequested("esi-characters.read_titles.v1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []string{"esi-characters.read_titles.v1", "publicData", "esi-location.read_location.v1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestNormalizeRequested_InsertionOrderAndDedup(t *testing.T) {
	// publicData already requested: defaults must not duplicate it,
	// and the parsed order comes first.
	got, err := NormalizeRequested("esi-skills.read_skills.v1 publicData esi-skills.read_skills.v1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []string{"esi-skills.read_skills.v1", "publicData", "esi-location.read_location.v1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestNormalizeRequested_URLEncodedInput(t *testing.T) {
	got, err := NormalizeRequested("esi-skills.read_skills.v1%20esi-clones.read_clones.v1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []string{
		"esi-skills.read_skills.v1", "esi-clones.read_clones.v1",
		"publicData", "esi-location.read_location.v1",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestNormalizeRequested_OutOfCatalog(t *testing.T) {
	if _, err := NormalizeRequested("esi-doesnotexist.v9"); !errors.Is(err, ErrUnknownScope) {
		t.Fatalf("expected ErrUnknownScope, got %v", err)
	}
}

func TestRegisterScopes(t *testing.T) {
	got, err := RegisterScopes("")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !reflect.DeepEqual(got, DefaultScopes) {
		t.Fatalf("empty input should yield defaults, got %v", got)
	}
	got, err = RegisterScopes("esi-assets.read_assets.v1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []string{"esi-assets.read_assets.v1", "publicData", "esi-location.read_location.v1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestComputeDeficit(t *testing.T) {
	cases := []struct {
		name     string
		required []string
		held     string
		want     []string
	}{
		{"no grant yields full required", []string{"A", "B"}, "", []string{"A", "B"}},
		{"superset grant satisfies", []string{"A", "B"}, "A B C", nil},
		{"partial grant yields missing", []string{"A", "B"}, "A", []string{"B"}},
		{"empty required is never a deficit", nil, "", nil},
	}
	for _, tc := range cases {
		got := ComputeDeficit(tc.required, SplitScopes(tc.held))
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestInCatalog(t *testing.T) {
	if !InCatalog("publicData") {
		t.Fatal("publicData should be in catalog")
	}
	if InCatalog("esi-made-up.v1") {
		t.Fatal("unknown scope should not be in catalog")
	}
}
