/*
access.go - Authorization registry for the three actor roles

PURPOSE:
  Holds the owner identity (fixed at construction) and resolves membership
  of the company, bank, and tax office sets. Only the owner may change
  membership; anyone may ask whether an identity is authorized.

RULES:
  Register:   owner only, fails AlreadyRegistered if present
  Unregister: owner only, fails NotRegistered if absent
  IsAuthorized: side-effect free

  There is no role escalation path and no way to change the owner.

SEE ALSO:
  - contract.go: Calls Ensure* before any write
*/
package pension

import (
	"context"
	"fmt"

	"github.com/warp/pension-engine/generic"
)

// AccessRegistry resolves caller authorization against the role sets.
type AccessRegistry struct {
	store Store
	owner generic.AccountID
}

// NewAccessRegistry binds a registry to store with a fixed owner.
func NewAccessRegistry(store Store, owner generic.AccountID) *AccessRegistry {
	return &AccessRegistry{store: store, owner: owner}
}

// Owner returns the identity captured at construction.
func (r *AccessRegistry) Owner() generic.AccountID { return r.owner }

// EnsureOwner fails with ErrUnauthorized unless caller is the owner.
func (r *AccessRegistry) EnsureOwner(caller generic.AccountID) error {
	if caller != r.owner {
		return ErrUnauthorized
	}
	return nil
}

// EnsureAuthorized fails with ErrUnauthorized unless caller is in role's set.
func (r *AccessRegistry) EnsureAuthorized(ctx context.Context, role Role, caller generic.AccountID) error {
	ok, err := r.IsAuthorized(ctx, role, caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// IsAuthorized reports whether id is a member of role's set.
func (r *AccessRegistry) IsAuthorized(ctx context.Context, role Role, id generic.AccountID) (bool, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return r.store.IsMember(ctx, role, id)
}

// Register adds id to role's set.
func (r *AccessRegistry) Register(ctx context.Context, caller generic.AccountID, role Role, id generic.AccountID) error {
	if err := r.EnsureOwner(caller); err != nil {
		return err
	}
	present, err := r.IsAuthorized(ctx, role, id)
	if err != nil {
		return err
	}
	if present {
		return ErrAlreadyRegistered
	}
	return r.store.AddMember(ctx, role, id)
}

// Unregister removes id from role's set.
func (r *AccessRegistry) Unregister(ctx context.Context, caller generic.AccountID, role Role, id generic.AccountID) error {
	if err := r.EnsureOwner(caller); err != nil {
		return err
	}
	present, err := r.IsAuthorized(ctx, role, id)
	if err != nil {
		return err
	}
	if !present {
		return ErrNotRegistered
	}
	return r.store.RemoveMember(ctx, role, id)
}

// Members lists role's set in identity order.
func (r *AccessRegistry) Members(ctx context.Context, role Role) ([]generic.AccountID, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return r.store.Members(ctx, role)
}
