package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ideuxs/toumai-admin/models"
)

// listingColumns folds the legacy producer columns (titre/prix/etat) into the
// canonical record shape. Nothing outside this file sees the French names.
const listingColumns = `
	id_product,
	COALESCE(NULLIF(name, ''), titre, '') AS name,
	COALESCE(description, '') AS description,
	COALESCE(price, prix, 0) AS price,
	COALESCE(category, '') AS category,
	COALESCE(state, etat, 'pending') AS state,
	COALESCE(owner_id, '') AS owner_id,
	created_at`

// FetchListings reads the full listing collection. There is no filter
// pushdown; tab filtering happens on the in-memory snapshot.
func (d *Database) FetchListings(ctx context.Context) ([]models.Listing, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT"+listingColumns+" FROM product ORDER BY created_at DESC, id_product DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(&l.ID, &l.Name, &l.Description, &l.Price,
			&l.Category, &l.State, &l.OwnerID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

// GetListing reads a single listing by id.
func (d *Database) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	var l models.Listing
	err := d.db.QueryRowContext(ctx,
		"SELECT"+listingColumns+" FROM product WHERE id_product = ?", id).
		Scan(&l.ID, &l.Name, &l.Description, &l.Price,
			&l.Category, &l.State, &l.OwnerID, &l.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to query listing %d: %w", id, err)
	}
	return &l, nil
}

// GetListingOwner re-fetches the owner reference of a listing. A missing row
// and a row the service may not read both come back as ErrListingNotFound.
func (d *Database) GetListingOwner(ctx context.Context, id int64) (string, error) {
	var owner string
	err := d.db.QueryRowContext(ctx,
		"SELECT COALESCE(owner_id, '') FROM product WHERE id_product = ?", id).Scan(&owner)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrListingNotFound
		}
		return "", fmt.Errorf("failed to query listing owner %d: %w", id, err)
	}
	return owner, nil
}

// UpdateListingState writes the new moderation state and returns the updated
// row with the fixed projection (owner reference, state, id, name). Both the
// canonical and the legacy state column are written so either producer
// generation reads a consistent row.
func (d *Database) UpdateListingState(ctx context.Context, id int64, state models.ModerationState) (*models.ListingProjection, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("invalid moderation state %q", state)
	}

	res, err := d.db.ExecContext(ctx,
		"UPDATE product SET state = ?, etat = ? WHERE id_product = ?", state, state, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// The row may exist with the state already set; only a missing row is
		// an error. MySQL reports 0 affected rows for no-op updates too.
		var exists bool
		if err := d.db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM product WHERE id_product = ?)", id).Scan(&exists); err == nil && !exists {
			return nil, ErrListingNotFound
		}
	}

	var p models.ListingProjection
	err = d.db.QueryRowContext(ctx, `
		SELECT COALESCE(owner_id, ''), COALESCE(state, etat, 'pending'),
			id_product, COALESCE(NULLIF(name, ''), titre, '')
		FROM product WHERE id_product = ?`, id).
		Scan(&p.OwnerID, &p.State, &p.ID, &p.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to read back listing %d: %w", id, err)
	}

	return &p, nil
}

// DeleteListing removes the primary listing row. This is the step whose
// success defines "deleted".
func (d *Database) DeleteListing(ctx context.Context, id int64) error {
	res, err := d.db.ExecContext(ctx, "DELETE FROM product WHERE id_product = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete listing %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrListingNotFound
	}
	return nil
}

// ListingImageURLs reads the structured image rows for a listing in insertion
// order; the first row is the primary image.
func (d *Database) ListingImageURLs(ctx context.Context, id int64) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT image_url FROM product_images WHERE product_id = ? ORDER BY id ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query listing images %d: %w", id, err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan image url: %w", err)
		}
		urls = append(urls, url)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing images: %w", err)
	}

	return urls, nil
}

// DeleteListingImages removes all image metadata rows for a listing and
// returns the number of rows removed.
func (d *Database) DeleteListingImages(ctx context.Context, id int64) (int64, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM product_images WHERE product_id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete image rows for listing %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted image rows for listing %d: %w", id, err)
	}
	return n, nil
}
