package domain

// Profile holds the mutable profile fields owned by the backend. The client
// keeps a read-mostly projection and only changes it through explicit
// profile-update calls.
type Profile struct {
	Bio            string `json:"bio,omitempty"`
	Education      string `json:"education,omitempty"`
	PhoneNumber    string `json:"phone_number,omitempty"`
	Country        string `json:"country,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// User represents the authenticated account as returned by the backend.
type User struct {
	ID         string   `json:"id,omitempty"`
	Email      string   `json:"email"`
	FullName   string   `json:"full_name,omitempty"`
	FirstName  string   `json:"first_name,omitempty"`
	LastName   string   `json:"last_name,omitempty"`
	DateJoined string   `json:"date_joined,omitempty"`
	Profile    *Profile `json:"profile,omitempty"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}
