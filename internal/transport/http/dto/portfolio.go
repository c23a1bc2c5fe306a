package dto

import "portfolio_cms/internal/domain/models"

type CreateItemResponse struct {
	ID string `json:"id"`
}

// VisibilityRequest carries the toggle as a pointer so "false" survives
// required-field validation.
type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

type ProfileRequest struct {
	Name      string         `json:"name" validate:"required"`
	Role      string         `json:"role"`
	Bio       string         `json:"bio"`
	Email     string         `json:"email" validate:"omitempty,email"`
	AvatarURL string         `json:"avatarUrl"`
	CoverURL  string         `json:"coverUrl"`
	Socials   models.Socials `json:"socials"`
}

func (r ProfileRequest) ToDomain() models.Profile {
	return models.Profile{
		Name:      r.Name,
		Role:      r.Role,
		Bio:       r.Bio,
		Email:     r.Email,
		AvatarURL: r.AvatarURL,
		CoverURL:  r.CoverURL,
		Socials:   r.Socials,
	}
}
