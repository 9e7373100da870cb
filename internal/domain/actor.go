package domain

// Role is the immutable role recorded on a Profile.
type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleNGO       Role = "ngo"
)

func (r Role) Valid() bool {
	return r == RoleVolunteer || r == RoleNGO
}

// Actor is the authenticated caller of a lifecycle operation. It has exactly
// two variants, Volunteer and NgoAdmin; callers authorize with a type switch.
type Actor interface {
	ProfileID() string
	Role() Role
	actor()
}

// Volunteer acts on behalf of a volunteer profile.
type Volunteer struct {
	ID string
}

func (v Volunteer) ProfileID() string { return v.ID }
func (v Volunteer) Role() Role        { return RoleVolunteer }
func (Volunteer) actor()              {}

// NgoAdmin acts on behalf of an NGO profile.
type NgoAdmin struct {
	ID string
}

func (n NgoAdmin) ProfileID() string { return n.ID }
func (n NgoAdmin) Role() Role        { return RoleNGO }
func (NgoAdmin) actor()              {}

// NewActor builds the variant matching role.
func NewActor(profileID string, role Role) (Actor, error) {
	if profileID == "" {
		return nil, NewError(KindNotAuthorized, "missing actor identity")
	}
	switch role {
	case RoleVolunteer:
		return Volunteer{ID: profileID}, nil
	case RoleNGO:
		return NgoAdmin{ID: profileID}, nil
	default:
		return nil, NewError(KindNotAuthorized, "unknown role %q", role)
	}
}
