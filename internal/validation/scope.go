// Package validation normalizes requested authorization scopes and computes
// scope deficits against a held grant. It is the single gate deciding
// "continue the happy path" vs "branch into a re-authorization request".
package validation

import (
	"errors"
	"net/url"
	"strings"
)

// ErrScopesRequired: the scopes parameter was absent where the flow needs one.
// ErrUnknownScope: a requested scope is not in the provider's catalog.
// Both surface to the caller as a 400.
var (
	ErrScopesRequired = errors.New("validation: scopes parameter required")
	ErrUnknownScope   = errors.New("validation: scope not in provider catalog")
)

// NormalizeRequested parses a raw scopes query parameter into a validated
// scope list: URL-decode, split on whitespace, union the fixed defaults,
// drop duplicates. The returned order is the insertion order of
// (parsed ∪ defaults). An absent/empty parameter is an error; callers that
// allow omission use RegisterScopes instead.
func NormalizeRequested(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrScopesRequired
	}
	// The router already decodes query values; decoding again is harmless for
	// catalog names and covers callers that pass pre-encoded input.
	if dec, err := url.QueryUnescape(raw); err == nil {
		raw = dec
	}

	out := make([]string, 0, len(DefaultScopes)+4)
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range strings.Fields(raw) {
		add(s)
	}
	for _, s := range DefaultScopes {
		add(s)
	}

	for _, s := range out {
		if !InCatalog(s) {
			return nil, ErrUnknownScope
		}
	}
	return out, nil
}

// RegisterScopes is the register client's scope-building rule: explicit
// scopes when the request carries them, the default set otherwise.
func RegisterScopes(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), DefaultScopes...), nil
	}
	return NormalizeRequested(raw)
}

// SplitScopes splits a grant's space-separated scope string. A nil/empty
// result means nothing is held.
func SplitScopes(s string) []string {
	return strings.Fields(s)
}

// ComputeDeficit returns the subset of required not present in held, or nil
// when the requirement is fully satisfied. A missing grant is expressed as a
// nil/empty held list, which yields the full required set — except that an
// empty required set is never a deficit.
func ComputeDeficit(required, held []string) []string {
	if len(required) == 0 {
		return nil
	}
	have := make(map[string]bool, len(held))
	for _, s := range held {
		have[s] = true
	}
	var missing []string
	for _, s := range required {
		if !have[s] {
			missing = append(missing, s)
		}
	}
	return missing
}
