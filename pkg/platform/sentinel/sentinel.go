package sentinel

import (
	"errors"
	"strings"
)

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in the store
//   - ErrAlreadyUsed: a unique key (agencyId, clientId, email) is already taken
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
)

// KeyConflictError is ErrAlreadyUsed naming the keys that collided.
type KeyConflictError struct {
	Keys []string
}

func (e *KeyConflictError) Error() string {
	return ErrAlreadyUsed.Error() + ": " + strings.Join(e.Keys, ", ")
}

func (e *KeyConflictError) Unwrap() error {
	return ErrAlreadyUsed
}

// AlreadyUsed returns ErrAlreadyUsed, carrying keys when any are known.
func AlreadyUsed(keys ...string) error {
	if len(keys) == 0 {
		return ErrAlreadyUsed
	}
	return &KeyConflictError{Keys: keys}
}

// ConflictingKeys returns the keys carried by a KeyConflictError in err's chain.
func ConflictingKeys(err error) []string {
	var conflict *KeyConflictError
	if errors.As(err, &conflict) {
		return conflict.Keys
	}
	return nil
}
