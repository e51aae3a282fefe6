package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/ideuxs/toumai-admin/database"
	"github.com/ideuxs/toumai-admin/models"
)

// Login handles staff authentication.
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	adminID, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid credentials"})
		return
	}

	token, refreshToken, err := h.auth.GenerateTokenPair(c.Request.Context(), adminID)
	if err != nil {
		log.WithError(err).Error("failed to generate token pair")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		Token:        token,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    3600, // 1 hour
	})
}

// RefreshToken handles token refresh.
func (h *Handlers) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	adminID, err := h.auth.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid refresh token"})
		return
	}

	token, refreshToken, err := h.auth.GenerateTokenPair(c.Request.Context(), adminID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{
		Token:        token,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    3600, // 1 hour
	})
}

// Me returns the signed-in staff account.
func (h *Handlers) Me(c *gin.Context) {
	adminID := c.GetString("admin_id")
	if adminID == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	admin, err := h.auth.GetAdmin(c.Request.Context(), adminID)
	if err != nil {
		if errors.Is(err, database.ErrAdminNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		log.WithError(err).Error("failed to load admin account")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load account"})
		return
	}

	c.JSON(http.StatusOK, admin)
}

// Logout handles staff logout.
func (h *Handlers) Logout(c *gin.Context) {
	adminID := c.GetString("admin_id")
	token := c.GetString("token")

	if adminID == "" || token == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return
	}

	if err := h.auth.InvalidateToken(c.Request.Context(), adminID, token); err != nil {
		// Log and still answer success; the token expires on its own.
		log.WithError(err).Warn("failed to invalidate token on logout")
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "logged out successfully"})
}

// ForgotPassword starts a password reset. Whether the email matches an
// account is not revealed to the requester.
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if h.mailer == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "password reset is not configured"})
		return
	}

	const reply = "if the address matches an account, a reset email has been sent"

	token, admin, err := h.auth.CreatePasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, database.ErrAdminNotFound) {
			log.WithError(err).Error("failed to create password reset")
		}
		c.JSON(http.StatusOK, models.MessageResponse{Message: reply})
		return
	}

	resetURL := fmt.Sprintf("%s?token=%s", h.resetBaseURL, token)
	if err := h.mailer.SendPasswordResetEmail(admin.Email, resetURL); err != nil {
		log.WithError(err).Error("failed to send password reset email")
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: reply})
}

// ResetPassword exchanges a reset token for a new password.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, database.ErrInvalidResetToken) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: err.Error()})
			return
		}
		log.WithError(err).Error("failed to reset password")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to reset password"})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "password updated, please sign in again"})
}
