package flowstate

import (
	"errors"
	"reflect"
	"testing"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec("unit-test-state-secret")
	if err != nil {
		t.Fatalf("NewCodec err: %v", err)
	}
	return c
}

func TestCodec_RoundTrip_AllVariants(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	states := []FlowState{
		{
			Aud:        "app.example.com",
			Variant:    FlowLogin,
			Mode:       ModeToken,
			Scopes:     []string{"publicData", "esi-location.read_location.v1"},
			RedirectTo: "https://app.example.com/#/home",
		},
		{
			Aud:        "app.example.com",
			Variant:    FlowRegister,
			Mode:       ModePersistent,
			Scopes:     []string{"publicData"},
			RedirectTo: "https://app.example.com/#/welcome",
		},
		{
			Aud:        "app.example.com",
			Variant:    FlowAddCharacter,
			Mode:       ModeNone,
			Scopes:     []string{"publicData"},
			RedirectTo: "https://app.example.com/#/characters",
			AccountID:  "9c5f7b1e-0000-4000-8000-c0ffee000001",
		},
		{
			Aud:         "app.example.com",
			Variant:     FlowModifyScopes,
			Mode:        ModeSession,
			Scopes:      []string{"esi-skills.read_skills.v1"},
			RedirectTo:  "https://app.example.com/#/settings",
			AccountID:   "9c5f7b1e-0000-4000-8000-c0ffee000001",
			CharacterID: 90000001,
		},
	}

	for _, want := range states {
		tok, err := c.Encode(want)
		if err != nil {
			t.Fatalf("Encode(%s) err: %v", want.Variant, err)
		}
		got, err := c.Decode(tok)
		if err != nil {
			t.Fatalf("Decode(%s) err: %v", want.Variant, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
		}
	}
}

func TestCodec_Decode_TamperedToken(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)

	tok, err := c.Encode(FlowState{Aud: "a", Variant: FlowLogin, Mode: ModeNone, RedirectTo: "https://x"})
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}
	for i := 0; i < len(tok); i++ {
		mut := []byte(tok)
		if mut[i] == 'A' {
			mut[i] = 'B'
		} else {
			mut[i] = 'A'
		}
		if _, err := c.Decode(string(mut)); !errors.Is(err, ErrDecode) {
			t.Fatalf("pos %d: expected ErrDecode, got %v", i, err)
		}
	}
}

func TestCodec_Decode_WrongSecret(t *testing.T) {
	t.Parallel()
	a := newTestCodec(t)
	b, err := NewCodec("a-different-secret")
	if err != nil {
		t.Fatalf("NewCodec err: %v", err)
	}
	tok, err := a.Encode(FlowState{Variant: FlowRegister, Mode: ModeNone})
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}
	if _, err := b.Decode(tok); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestCodec_Decode_Garbage(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)
	for _, tok := range []string{"", "%%%", "bm90IGEgc3RhdGU"} {
		if _, err := c.Decode(tok); !errors.Is(err, ErrDecode) {
			t.Fatalf("token %q: expected ErrDecode, got %v", tok, err)
		}
	}
}

func TestCodec_Decode_LegacyEmptyVariantIsLogin(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t)
	tok, err := c.Encode(FlowState{Aud: "a", Mode: ModeToken, RedirectTo: "https://x"})
	if err != nil {
		t.Fatalf("Encode err: %v", err)
	}
	got, err := c.Decode(tok)
	if err != nil {
		t.Fatalf("Decode err: %v", err)
	}
	if got.Variant != FlowLogin {
		t.Fatalf("expected empty variant normalized to login, got %q", got.Variant)
	}
}

func TestValidResponseMode(t *testing.T) {
	t.Parallel()
	for _, ok := range []string{"none", "token", "persistent", "session"} {
		if !ValidResponseMode(ok) {
			t.Fatalf("expected valid: %q", ok)
		}
	}
	for _, bad := range []string{"", "cookie", "Token", "fragment"} {
		if ValidResponseMode(bad) {
			t.Fatalf("expected invalid: %q", bad)
		}
	}
}
