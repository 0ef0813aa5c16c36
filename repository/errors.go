package repository

import (
	"cosmossdk.io/errors"
)

// ModuleName namespaces every error code this package registers.
const ModuleName = "repository"

// The repository error taxonomy. NotFound is the only kind InMemory returns;
// the matcher only sees it if an order disappears between its List and
// SetStatus calls. PreconditionFailed and DuplicateClientOrderID are
// reserved and never produced today. Internal is available to backing
// stores for unclassified faults; InMemory never returns it.
var (
	ErrNotFound               = errors.Register(ModuleName, 2, "order not found")
	ErrPreconditionFailed     = errors.Register(ModuleName, 3, "precondition failed")
	ErrDuplicateClientOrderID = errors.Register(ModuleName, 4, "duplicate client order id")
	ErrInternal               = errors.Register(ModuleName, 5, "internal repository error")
)
