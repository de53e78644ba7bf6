package services

// Actor is the caller of an operation. The zero value is anonymous.
type Actor struct {
	UserID uint
}

func (a Actor) Authenticated() bool {
	return a.UserID != 0
}

// Owned is implemented by every resource with a single owning user.
type Owned interface {
	OwnerUserID() uint
}

// Authorizer decides read and write access on owned resources. Anyone may
// read; only the owner may write.
type Authorizer struct{}

func (Authorizer) CanRead(actor Actor, resource Owned) bool {
	return true
}

func (Authorizer) CanWrite(actor Actor, resource Owned) bool {
	return actor.Authenticated() && resource.OwnerUserID() == actor.UserID
}

// Authorize returns nil when actor may mutate resource.
func (a Authorizer) Authorize(actor Actor, resource Owned) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if !a.CanWrite(actor, resource) {
		return ErrForbidden
	}
	return nil
}

func requireAuth(actor Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}
