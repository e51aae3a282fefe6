package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ideuxs/toumai-admin/models"
)

// Auth errors surfaced to handlers.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// AuthService handles staff authentication: password login, JWT token pairs
// with DB-backed hashes, and password reset tokens.
type AuthService struct {
	db         *sql.DB
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(db *sql.DB, jwtSecret string, accessTTL, refreshTTL, resetTTL time.Duration) *AuthService {
	return &AuthService{
		db:         db,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// Login authenticates a staff member and returns the admin id.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var adminID, passwordHash string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, password_hash FROM admin_users WHERE email = ?", email).
		Scan(&adminID, &passwordHash)
	if err != nil {
		// A missing account and a wrong password answer identically.
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return adminID, nil
}

// GetAdmin reads a staff account by id.
func (s *AuthService) GetAdmin(ctx context.Context, adminID string) (*models.AdminUser, error) {
	var a models.AdminUser
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM admin_users WHERE id = ?", adminID).
		Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to query admin: %w", err)
	}
	return &a, nil
}

// GenerateTokenPair creates an access and a refresh token for an admin and
// stores their hashes.
func (s *AuthService) GenerateTokenPair(ctx context.Context, adminID string) (string, string, error) {
	now := time.Now()
	accessExpiry := now.Add(s.accessTTL)
	refreshExpiry := now.Add(s.refreshTTL)

	access, err := s.signToken(adminID, "access", now, accessExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.signToken(adminID, "refresh", now, refreshExpiry)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.storeTokens(ctx, adminID, access, refresh, accessExpiry, refreshExpiry); err != nil {
		return "", "", fmt.Errorf("failed to store tokens: %w", err)
	}

	return access, refresh, nil
}

// ValidateToken verifies an access token signature, claims and DB presence,
// returning the admin id.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	adminID, tokenType, err := s.parseToken(tokenString)
	if err != nil || tokenType != "access" {
		return "", ErrInvalidToken
	}
	if err := s.verifyTokenInDB(adminID, tokenString, "access"); err != nil {
		return "", ErrInvalidToken
	}
	return adminID, nil
}

// ValidateRefreshToken verifies a refresh token and returns the admin id.
func (s *AuthService) ValidateRefreshToken(tokenString string) (string, error) {
	adminID, tokenType, err := s.parseToken(tokenString)
	if err != nil || tokenType != "refresh" {
		return "", ErrInvalidToken
	}
	if err := s.verifyTokenInDB(adminID, tokenString, "refresh"); err != nil {
		return "", ErrInvalidToken
	}
	return adminID, nil
}

// InvalidateToken removes a stored token on logout.
func (s *AuthService) InvalidateToken(ctx context.Context, adminID, tokenString string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM admin_tokens WHERE admin_id = ? AND token_hash = ?",
		adminID, hashToken(tokenString))
	if err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

// CreatePasswordReset issues a single-use reset token for the account with
// the given email and returns the token together with the account. Returns
// ErrAdminNotFound when no account matches; callers usually hide that from
// the requester.
func (s *AuthService) CreatePasswordReset(ctx context.Context, email string) (string, *models.AdminUser, error) {
	var a models.AdminUser
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM admin_users WHERE email = ?", email).
		Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil, ErrAdminNotFound
		}
		return "", nil, fmt.Errorf("failed to query admin by email: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate reset token: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO password_resets (admin_id, token_hash, expires_at) VALUES (?, ?, FROM_UNIXTIME(?))",
		a.ID, hashToken(token), time.Now().Add(s.resetTTL).Unix())
	if err != nil {
		return "", nil, fmt.Errorf("failed to store reset token: %w", err)
	}

	return token, &a, nil
}

// ResetPassword exchanges a reset token for a new password. The token is
// consumed and all existing sessions of the account are invalidated.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	var resetID int
	var adminID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, admin_id FROM password_resets
		WHERE token_hash = ? AND used_at IS NULL AND expires_at > NOW()`,
		hashToken(token)).Scan(&resetID, &adminID)
	if err != nil {
		return ErrInvalidResetToken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE admin_users SET password_hash = ? WHERE id = ?", string(passwordHash), adminID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE password_resets SET used_at = NOW() WHERE id = ?", resetID); err != nil {
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM admin_tokens WHERE admin_id = ?", adminID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return tx.Commit()
}

// Helper methods

func (s *AuthService) signToken(adminID, tokenType string, now, expiry time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": adminID,
		"type":     tokenType,
		"exp":      expiry.Unix(),
		"iat":      now.Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parseToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	adminID, _ := claims["admin_id"].(string)
	tokenType, _ := claims["type"].(string)
	if adminID == "" {
		return "", "", ErrInvalidToken
	}
	return adminID, tokenType, nil
}

func (s *AuthService) storeTokens(ctx context.Context, adminID, access, refresh string, accessExpiry, refreshExpiry time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// FROM_UNIXTIME keeps expiry comparisons timezone-consistent
	_, err = tx.ExecContext(ctx,
		"INSERT INTO admin_tokens (admin_id, token_hash, token_type, expires_at) VALUES (?, ?, 'access', FROM_UNIXTIME(?))",
		adminID, hashToken(access), accessExpiry.Unix())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO admin_tokens (admin_id, token_hash, token_type, expires_at) VALUES (?, ?, 'refresh', FROM_UNIXTIME(?))",
		adminID, hashToken(refresh), refreshExpiry.Unix())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *AuthService) verifyTokenInDB(adminID, tokenString, tokenType string) error {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM admin_tokens WHERE admin_id = ? AND token_hash = ? AND token_type = ? AND expires_at > NOW())",
		adminID, hashToken(tokenString), tokenType).Scan(&exists)
	if err != nil || !exists {
		return errors.New("token not found or expired")
	}
	return nil
}

// Utility functions

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
