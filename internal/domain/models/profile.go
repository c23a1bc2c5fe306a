package models

type Socials struct {
	Facebook string `json:"facebook,omitempty"`
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
}

// Profile is the singleton site owner record. At most one exists; when
// absent the public site renders DefaultProfile.
type Profile struct {
	Name      string  `json:"name"`
	Role      string  `json:"role"`
	Bio       string  `json:"bio"`
	Email     string  `json:"email"`
	AvatarURL string  `json:"avatarUrl"`
	CoverURL  string  `json:"coverUrl"`
	Socials   Socials `json:"socials"`
}

func DefaultProfile() Profile {
	return Profile{
		Name:      "Your Name",
		Role:      "Your Role",
		Bio:       "Tell visitors about yourself.",
		AvatarURL: "https://picsum.photos/400/400",
		CoverURL:  "https://picsum.photos/1600/600",
	}
}
