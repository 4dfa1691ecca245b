package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

type tokenRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
	AuthCode     string `json:"auth_code"`
}

type tokenUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         tokenUser `json:"user"`
}

type authError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (r *Router) handleToken(w http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<16))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, authError{Error: "invalid_request", ErrorDescription: "failed to read request body"})
		return
	}
	var tr tokenRequest
	if err := json.Unmarshal(body, &tr); err != nil {
		writeJSON(w, http.StatusBadRequest, authError{Error: "invalid_request", ErrorDescription: "invalid JSON"})
		return
	}

	var (
		user      *DevUser
		access    string
		refresh   string
		expiresAt time.Time
		grantErr  error
	)
	switch req.URL.Query().Get("grant_type") {
	case "password":
		user, access, refresh, expiresAt, grantErr = r.store.SignIn(tr.Email, tr.Password)
	case "refresh_token":
		user, access, refresh, expiresAt, grantErr = r.store.Refresh(tr.RefreshToken)
	case "authorization_code":
		user, access, refresh, expiresAt, grantErr = r.store.Exchange(tr.AuthCode)
	default:
		writeJSON(w, http.StatusBadRequest, authError{Error: "unsupported_grant_type", ErrorDescription: "grant_type must be password, refresh_token, or authorization_code"})
		return
	}
	if grantErr != nil {
		writeJSON(w, http.StatusBadRequest, authError{Error: "invalid_grant", ErrorDescription: grantErr.Error()})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		User:         tokenUser{ID: user.ID, Email: user.Email},
	})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if tok := bearerToken(req); tok != "" {
		r.store.RevokeToken(tok)
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *Router) handleUpdateUser(w http.ResponseWriter, req *http.Request) {
	tok := bearerToken(req)
	user := r.store.UserForToken(tok)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, authError{Error: "invalid_token", ErrorDescription: "authentication required"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<16))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, authError{Error: "invalid_request", ErrorDescription: "failed to read request body"})
		return
	}
	var ur updateUserRequest
	if err := json.Unmarshal(body, &ur); err != nil {
		writeJSON(w, http.StatusBadRequest, authError{Error: "invalid_request", ErrorDescription: "invalid JSON"})
		return
	}

	updated, err := r.store.UpdateUser(user.ID, ur.Email, ur.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, authError{Error: "invalid_request", ErrorDescription: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, tokenUser{ID: updated.ID, Email: updated.Email})
}

func bearerToken(req *http.Request) string {
	h := req.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
