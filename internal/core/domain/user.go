package domain

import "time"

type Role string

const (
	RoleDonor     Role = "donor"
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDonor, RoleVolunteer, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole rejects anything outside the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", Validation("unknown role " + quote(s))
	}
	return r, nil
}

type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserBlocked
}

func ParseUserStatus(s string) (UserStatus, error) {
	st := UserStatus(s)
	if !st.Valid() {
		return "", Validation("unknown user status " + quote(s))
	}
	return st, nil
}

// StatusCommand maps the block/unblock verbs onto a stored status. Any other
// input yields ok=false and must not change the user.
func StatusCommand(cmd string) (status UserStatus, ok bool) {
	switch cmd {
	case "block":
		return UserBlocked, true
	case "unblock":
		return UserActive, true
	default:
		return "", false
	}
}

type User struct {
	Email      string     `bson:"email" json:"email"`
	Name       string     `bson:"name,omitempty" json:"name,omitempty"`
	Avatar     string     `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role       Role       `bson:"role" json:"role"`
	Status     UserStatus `bson:"status" json:"status"`
	BloodGroup string     `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	District   string     `bson:"district,omitempty" json:"district,omitempty"`
	Upazila    string     `bson:"upazila,omitempty" json:"upazila,omitempty"`
	CreatedAt  time.Time  `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Profile holds the fields a user may edit on their own record.
type Profile struct {
	Name       string `bson:"name,omitempty" json:"name,omitempty"`
	Avatar     string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	BloodGroup string `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	District   string `bson:"district,omitempty" json:"district,omitempty"`
	Upazila    string `bson:"upazila,omitempty" json:"upazila,omitempty"`
}

func (u User) IsBlocked() bool {
	return u.Status == UserBlocked
}
