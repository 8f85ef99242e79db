package dto

type TokenRequest struct {
	Username string `json:"username" validate:"required,max=100"`
}

type TokenResponse struct {
	Token string `json:"token"`
}
