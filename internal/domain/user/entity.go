package user

// User represents a user entity in the system.
// ID is assigned by the backing store on first save and never changes afterwards.
type User struct {
	ID    int64  `json:"id"`    // ID is the unique identifier for the user, zero until persisted
	Name  string `json:"name"`  // Name is the display name of the user
	Email string `json:"email"` // Email is the unique email address of the user
}

// IsNew reports whether the user has not been persisted yet.
func (u *User) IsNew() bool {
	return u.ID == 0
}
