package fundflow

import "github.com/xraph/fundflow/id"

// ID is the primary identifier type for fundflow records.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
