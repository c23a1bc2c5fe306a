package request

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
