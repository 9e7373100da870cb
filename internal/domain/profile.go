package domain

import "time"

type Profile struct {
	ID               string    `json:"id"`
	Role             Role      `json:"role"`
	Name             string    `json:"name"`
	OrganizationName *string   `json:"organization_name,omitempty"`
	AvatarURL        *string   `json:"avatar_url,omitempty"`
	Email            *string   `json:"email,omitempty"`
	Skills           []string  `json:"skills"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DisplayName is the organization name for NGOs that set one, otherwise the
// profile name.
func (p *Profile) DisplayName() string {
	if p.OrganizationName != nil && *p.OrganizationName != "" {
		return *p.OrganizationName
	}
	return p.Name
}

type ProfileDraft struct {
	Name             string   `json:"name" validate:"required,max=100"`
	OrganizationName *string  `json:"organization_name" validate:"omitempty,max=200"`
	Email            *string  `json:"email" validate:"omitempty,email,max=254"`
	Skills           []string `json:"skills" validate:"max=50"`
}
