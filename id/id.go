// Package id defines TypeID-based identity types for fundflow records.
//
// Every persisted record in fundflow uses a single ID struct with a prefix that identifies
// the entity type. IDs are K-sortable (UUIDv7-based), globally unique,
// and URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all fundflow entity types.
const (
	PrefixFunding       Prefix = "fund" // Invoice funding record
	PrefixJournal       Prefix = "jrn"  // Balance journal entry
	PrefixVerification  Prefix = "bver" // Business verification
	PrefixCertification Prefix = "cert" // Invoice certification
	PrefixRisk          Prefix = "risk" // Risk assessment
)

// ID is the primary identifier type for all fundflow records.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "fund_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// FundingID is a type-safe identifier for funding records (prefix: "fund").
type FundingID = ID

// JournalID is a type-safe identifier for journal entries (prefix: "jrn").
type JournalID = ID

// VerificationID is a type-safe identifier for business verifications (prefix: "bver").
type VerificationID = ID

// CertificationID is a type-safe identifier for invoice certifications (prefix: "cert").
type CertificationID = ID

// RiskID is a type-safe identifier for risk assessments (prefix: "risk").
type RiskID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewFundingID generates a new unique funding record ID.
func NewFundingID() ID { return New(PrefixFunding) }

// NewJournalID generates a new unique journal entry ID.
func NewJournalID() ID { return New(PrefixJournal) }

// NewVerificationID generates a new unique verification ID.
func NewVerificationID() ID { return New(PrefixVerification) }

// NewCertificationID generates a new unique certification ID.
func NewCertificationID() ID { return New(PrefixCertification) }

// NewRiskID generates a new unique risk assessment ID.
func NewRiskID() ID { return New(PrefixRisk) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseFundingID parses a string and validates the "fund" prefix.
func ParseFundingID(s string) (ID, error) { return ParseWithPrefix(s, PrefixFunding) }

// ParseJournalID parses a string and validates the "jrn" prefix.
func ParseJournalID(s string) (ID, error) { return ParseWithPrefix(s, PrefixJournal) }

// ParseVerificationID parses a string and validates the "bver" prefix.
func ParseVerificationID(s string) (ID, error) { return ParseWithPrefix(s, PrefixVerification) }

// ParseCertificationID parses a string and validates the "cert" prefix.
func ParseCertificationID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCertification) }

// ParseRiskID parses a string and validates the "risk" prefix.
func ParseRiskID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRisk) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
