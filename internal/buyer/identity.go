package buyer

import (
	"context"
	"strings"
)

// Identity describes who owns a cart. Exactly one of UserID or AnonID is set;
// CompanyID is present only for buyers purchasing on behalf of an approved
// partner company.
type Identity struct {
	UserID    string
	CompanyID string
	AnonID    string
}

// Key returns the buyer-scoped persistence key. Guest sessions, consumer
// accounts, and company accounts never collide.
func (i Identity) Key() string {
	switch {
	case i.CompanyID != "" && i.UserID != "":
		return "company:" + i.CompanyID + ":user:" + i.UserID
	case i.UserID != "":
		return "user:" + i.UserID
	case i.AnonID != "":
		return "anon:" + i.AnonID
	default:
		return ""
	}
}

// IsCompany reports whether the buyer purchases under a partner company and
// is therefore entitled to company tier pricing.
func (i Identity) IsCompany() bool {
	return strings.TrimSpace(i.CompanyID) != ""
}

// IsZero reports whether no identity could be established.
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.AnonID == ""
}

type identityKey struct{}

// WithIdentity stores the buyer identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext extracts the buyer identity from the context if present.
func FromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey{})
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok && !id.IsZero()
}
