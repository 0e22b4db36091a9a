package types

import "strings"

// Identity is an opaque principal: a funder, a business, or an administrator.
// The ledger never interprets its contents; two identities are the same
// principal iff their strings are equal.
type Identity string

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool { return strings.TrimSpace(string(i)) == "" }

// String implements fmt.Stringer.
func (i Identity) String() string { return string(i) }
