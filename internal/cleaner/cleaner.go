// Package cleaner post-processes a finalized step sequence: it drops
// authentication and interstitial navigations, collapses redirect
// chains to their final destination, removes route-change ghosts that
// trail a click, and deduplicates doubled click deliveries. Clean is a
// pure function and idempotent, so it can run on every preview refresh
// as well as at compile time.
package cleaner

import (
	"net/url"
	"strings"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// redirectFragments mark interstitial hops that carry no user intent
// regardless of the host serving them.
var redirectFragments = []string{
	"signin-oidc", "oauth2", "/authorize", "login.srf", "redirecting",
}

// Cleaner applies the noise rules for one platform profile.
type Cleaner struct {
	profile *platform.Profile
}

// New builds a Cleaner over the platform's identity-provider table.
func New(profile *platform.Profile) *Cleaner {
	return &Cleaner{profile: profile}
}

// Clean returns a cleaned copy of steps; the input is never mutated.
// Rules run in one left-to-right pass against the last kept step:
//
//   - navigations to identity providers or redirect interstitials drop
//   - a navigation whose nearest kept predecessor is a click drops,
//     as the presumed route change of that click
//   - a navigation superseded by a later valid navigation before the
//     next user action drops, so only the end of a redirect chain
//     survives
//   - wait steps drop unconditionally
//   - a click structurally equal to the previous kept click drops
//
// Fill and select steps always pass through. Surviving steps are
// renumbered densely from one.
func (c *Cleaner) Clean(steps []schemas.RecordedStep) []schemas.RecordedStep {
	kept := make([]schemas.RecordedStep, 0, len(steps))

	for i, step := range steps {
		switch step.Action {
		case schemas.ActionWait:
			continue

		case schemas.ActionNavigate:
			if c.authOrRedirect(step) {
				continue
			}
			if last := lastKept(kept); last != nil && last.Action == schemas.ActionClick {
				continue
			}
			if c.supersededNavigation(steps, i) {
				continue
			}
			kept = append(kept, step)

		case schemas.ActionClick:
			if last := lastKept(kept); last != nil &&
				last.Action == schemas.ActionClick &&
				locatorsEqual(last.Locator, step.Locator) {
				continue
			}
			kept = append(kept, step)

		default:
			kept = append(kept, step)
		}
	}

	for i := range kept {
		kept[i].Order = i + 1
	}
	return kept
}

// authOrRedirect reports navigations that never represent user intent:
// empty or blank targets, identity-provider hosts, and URLs carrying a
// known interstitial fragment.
func (c *Cleaner) authOrRedirect(step schemas.RecordedStep) bool {
	raw := step.PageURL
	if raw == "" || raw == "about:blank" {
		return true
	}
	if u, err := url.Parse(raw); err == nil {
		if c.profile.IsIdPHost(u.Hostname()) {
			return true
		}
	}
	lower := strings.ToLower(raw)
	for _, fragment := range redirectFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// supersededNavigation looks ahead from the navigation at index i: a
// later valid navigation arriving before the next user action makes
// this one an intermediate hop.
func (c *Cleaner) supersededNavigation(steps []schemas.RecordedStep, i int) bool {
	for _, step := range steps[i+1:] {
		switch step.Action {
		case schemas.ActionClick, schemas.ActionFill, schemas.ActionSelect:
			return false
		case schemas.ActionNavigate:
			if !c.authOrRedirect(step) {
				return true
			}
		}
	}
	return false
}

func lastKept(kept []schemas.RecordedStep) *schemas.RecordedStep {
	if len(kept) == 0 {
		return nil
	}
	return &kept[len(kept)-1]
}

func locatorsEqual(a, b *schemas.Locator) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
