package api

import "time"

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Username *string `json:"username"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type profileResponse struct {
	Success   bool      `json:"success"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
