package controllers

import (
	"net/http"

	"github.com/mad23dog/nomad-detroit-coffee/app/services"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/auth"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/bind"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/response"
)

// AuthController issues admin tokens.
type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges admin credentials for a bearer token.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if _, err := bind.JSON(r, &input); err != nil {
		response.Error(w, http.StatusUnauthorized,
			services.CodeInvalidCredentials, "invalid username or password")
		return
	}

	token, serr := c.auth.Login(input.Username, input.Password)
	if serr != nil {
		writeServiceError(w, serr)
		return
	}
	response.OK(w, map[string]any{
		"token":     token,
		"expiresIn": int(auth.TokenTTL.Seconds()),
	})
}
