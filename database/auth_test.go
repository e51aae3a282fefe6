package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(db *sql.DB) *AuthService {
	return NewAuthService(db, "test-secret", time.Hour, 7*24*time.Hour, time.Hour)
}

func TestLogin(t *testing.T) {
	it(func() {
		hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
		mock.ExpectQuery("SELECT id, password_hash FROM admin_users WHERE email").
			WithArgs("staff@toumai.app").
			WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).
				AddRow("admin-1", string(hash)))

		auth := newTestAuth(mockDB)
		adminID, err := auth.Login(context.Background(), "staff@toumai.app", "hunter2")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if adminID != "admin-1" {
			t.Errorf("adminID = %q, want admin-1", adminID)
		}
	})
}

func TestLoginWrongPassword(t *testing.T) {
	it(func() {
		hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
		mock.ExpectQuery("SELECT id, password_hash FROM admin_users WHERE email").
			WithArgs("staff@toumai.app").
			WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash"}).
				AddRow("admin-1", string(hash)))

		auth := newTestAuth(mockDB)
		_, err := auth.Login(context.Background(), "staff@toumai.app", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestLoginUnknownAccount(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, password_hash FROM admin_users WHERE email").
			WithArgs("nobody@toumai.app").
			WillReturnError(sql.ErrNoRows)

		auth := newTestAuth(mockDB)
		_, err := auth.Login(context.Background(), "nobody@toumai.app", "whatever")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestGetAdmin(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery("SELECT id, name, email, created_at FROM admin_users WHERE id").
			WithArgs("admin-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
				AddRow("admin-1", "Staff", "staff@toumai.app", now))

		auth := newTestAuth(mockDB)
		admin, err := auth.GetAdmin(context.Background(), "admin-1")
		if err != nil {
			t.Fatalf("GetAdmin: %v", err)
		}
		if admin.ID != "admin-1" || admin.Email != "staff@toumai.app" {
			t.Errorf("admin = %+v", admin)
		}
	})
}

func TestGetAdminNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, name, email, created_at FROM admin_users WHERE id").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		auth := newTestAuth(mockDB)
		if _, err := auth.GetAdmin(context.Background(), "ghost"); !errors.Is(err, ErrAdminNotFound) {
			t.Errorf("err = %v, want ErrAdminNotFound", err)
		}
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO admin_tokens").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO admin_tokens").
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		auth := newTestAuth(mockDB)
		access, refresh, err := auth.GenerateTokenPair(context.Background(), "admin-1")
		if err != nil {
			t.Fatalf("GenerateTokenPair: %v", err)
		}
		if access == "" || refresh == "" || access == refresh {
			t.Fatalf("bad token pair: access=%q refresh=%q", access, refresh)
		}

		mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM admin_tokens").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		adminID, err := auth.ValidateToken(access)
		if err != nil {
			t.Fatalf("ValidateToken: %v", err)
		}
		if adminID != "admin-1" {
			t.Errorf("adminID = %q, want admin-1", adminID)
		}

		// An access token must not validate as a refresh token.
		if _, err := auth.ValidateRefreshToken(access); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("refresh validation of access token: err = %v, want ErrInvalidToken", err)
		}
	})
}

func TestValidateTokenRejectsRevoked(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO admin_tokens").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO admin_tokens").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		auth := newTestAuth(mockDB)
		access, _, err := auth.GenerateTokenPair(context.Background(), "admin-1")
		if err != nil {
			t.Fatalf("GenerateTokenPair: %v", err)
		}

		// Signature is fine but the hash is gone from the table.
		mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM admin_tokens").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		if _, err := auth.ValidateToken(access); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	it(func() {
		auth := newTestAuth(mockDB)
		if _, err := auth.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO admin_tokens").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO admin_tokens").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		other := NewAuthService(mockDB, "other-secret", time.Hour, time.Hour, time.Hour)
		access, _, err := other.GenerateTokenPair(context.Background(), "admin-1")
		if err != nil {
			t.Fatalf("GenerateTokenPair: %v", err)
		}

		auth := newTestAuth(mockDB)
		if _, err := auth.ValidateToken(access); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})
}

func TestCreatePasswordReset(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery("SELECT id, name, email, created_at FROM admin_users WHERE email").
			WithArgs("staff@toumai.app").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
				AddRow("admin-1", "Staff", "staff@toumai.app", now))
		mock.ExpectExec("INSERT INTO password_resets").
			WillReturnResult(sqlmock.NewResult(1, 1))

		auth := newTestAuth(mockDB)
		token, admin, err := auth.CreatePasswordReset(context.Background(), "staff@toumai.app")
		if err != nil {
			t.Fatalf("CreatePasswordReset: %v", err)
		}
		if len(token) != 64 {
			t.Errorf("token length = %d, want 64 hex chars", len(token))
		}
		if admin.ID != "admin-1" {
			t.Errorf("admin = %+v", admin)
		}
	})
}

func TestCreatePasswordResetUnknownEmail(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, name, email, created_at FROM admin_users WHERE email").
			WithArgs("nobody@toumai.app").
			WillReturnError(sql.ErrNoRows)

		auth := newTestAuth(mockDB)
		_, _, err := auth.CreatePasswordReset(context.Background(), "nobody@toumai.app")
		if !errors.Is(err, ErrAdminNotFound) {
			t.Errorf("err = %v, want ErrAdminNotFound", err)
		}
	})
}

func TestResetPassword(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, admin_id FROM password_resets").
			WillReturnRows(sqlmock.NewRows([]string{"id", "admin_id"}).AddRow(10, "admin-1"))
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE admin_users SET password_hash").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE password_resets SET used_at").
			WithArgs(10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM admin_tokens WHERE admin_id").
			WithArgs("admin-1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		auth := newTestAuth(mockDB)
		if err := auth.ResetPassword(context.Background(), "sometoken", "newpassword"); err != nil {
			t.Fatalf("ResetPassword: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestResetPasswordBadToken(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, admin_id FROM password_resets").
			WillReturnError(sql.ErrNoRows)

		auth := newTestAuth(mockDB)
		err := auth.ResetPassword(context.Background(), "expired", "newpassword")
		if !errors.Is(err, ErrInvalidResetToken) {
			t.Errorf("err = %v, want ErrInvalidResetToken", err)
		}
	})
}
