package handlers

import (
	"net/http"

	"github.com/xelth-com/eckposgo/internal/middleware"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login handles staff login
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := decode(req, &loginReq); err != nil {
		r.fail(w, req, err)
		return
	}

	session, err := r.Staff.Login(req.Context(), loginReq.Username, loginReq.Password)
	if err != nil {
		r.fail(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// me echoes the identity carried by the caller's token
func (r *Router) me(w http.ResponseWriter, req *http.Request) {
	who, _ := middleware.IdentityFrom(req.Context())
	respondJSON(w, http.StatusOK, who)
}
