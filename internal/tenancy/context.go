// Package tenancy carries the caller's organization identity through a request.
//
// TrustedContext is the only permitted source for security-scoped query
// substitutions. It is built from authenticated request facts, never from
// free-text query input.
package tenancy

import (
	"context"
	"errors"
	"strings"
)

// ErrMissingOrganization indicates a caller without a home organization id.
var ErrMissingOrganization = errors.New("tenancy: home organization id is required")

// TrustedContext holds the caller identity facts for one request.
// It is immutable for the lifetime of the request.
type TrustedContext struct {
	UserID       string   `json:"user_id"`
	OrgID        string   `json:"home_organization_id"`
	ClientOrgIDs []string `json:"accessible_client_organization_ids"`
	Role         string   `json:"role"`
}

// Validate checks the minimum identity facts needed to scope a query.
func (c TrustedContext) Validate() error {
	if strings.TrimSpace(c.OrgID) == "" {
		return ErrMissingOrganization
	}
	return nil
}

// AccessibleClientOrgs returns the non-empty client organization ids.
func (c TrustedContext) AccessibleClientOrgs() []string {
	out := make([]string, 0, len(c.ClientOrgIDs))
	for _, id := range c.ClientOrgIDs {
		if strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}
	return out
}

// AuthorizedOrgs returns every organization id the caller may see:
// the home organization plus any accessible client organizations.
func (c TrustedContext) AuthorizedOrgs() []string {
	return append([]string{c.OrgID}, c.AccessibleClientOrgs()...)
}

type ctxKey string

const callerKey ctxKey = "occuhealth.caller"

// WithCaller stores the trusted caller context in ctx.
func WithCaller(ctx context.Context, caller TrustedContext) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext extracts the trusted caller context if present.
func CallerFromContext(ctx context.Context) (TrustedContext, bool) {
	val := ctx.Value(callerKey)
	if val == nil {
		return TrustedContext{}, false
	}
	caller, ok := val.(TrustedContext)
	return caller, ok && caller.OrgID != ""
}
