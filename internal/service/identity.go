package service

// Identity is the resolved caller of an operation. The zero value is Anonymous.
type Identity struct {
	UserID uint64
	Admin  bool
}

var Anonymous = Identity{}

func (i Identity) Authenticated() bool {
	return i.UserID != 0
}

func (i Identity) RequireAuthenticated() (uint64, error) {
	if !i.Authenticated() {
		return 0, ErrAuthRequired
	}
	return i.UserID, nil
}

// CanModify reports whether the caller may change something owned by ownerID.
func (i Identity) CanModify(ownerID uint64) error {
	if !i.Authenticated() {
		return ErrAuthRequired
	}
	if i.UserID != ownerID && !i.Admin {
		return ErrPermission
	}
	return nil
}

func (i Identity) RequireAdmin() error {
	if !i.Authenticated() {
		return ErrAuthRequired
	}
	if !i.Admin {
		return ErrPermission
	}
	return nil
}
