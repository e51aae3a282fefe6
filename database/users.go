package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ideuxs/toumai-admin/models"
)

// GetUser reads a marketplace user row by id, with display name and push
// token. Used to build owner notifications.
func (d *Database) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}

	var u models.User
	var deviceToken sql.NullString
	err := d.db.QueryRowContext(ctx, `
		SELECT id, firstname, COALESCE(lastname, ''), COALESCE(email, ''), device_token
		FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &deviceToken)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user %s: %w", id, err)
	}
	u.DeviceToken = deviceToken.String

	return &u, nil
}

// GetUserName reads just the display name of a user.
func (d *Database) GetUserName(ctx context.Context, id string) (string, error) {
	u, err := d.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return u.DisplayName(), nil
}
