package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/openpantry/barcode-resolver/internal/auth"
)

// LoginHandler godoc
// @Summary Log in as the curation operator
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body UserLogin true "Operator credentials"
// @Success 200 {object} LoginResult
// @Failure 401 {string} string "Unauthorized"
// @Router /auth/login [post]
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req UserLogin
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	if req.Username != curatorUsername || curatorPasswordHash == "" {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(curatorPasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(req.Username)
	if err != nil {
		http.Error(w, "could not generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, LoginResult{Token: token})
}
