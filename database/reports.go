package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ideuxs/toumai-admin/models"
)

// FetchReports reads all user reports with the denormalized reporter and
// listing fields the console shows. Reports are immutable; there is no
// mutation or deletion path.
func (d *Database) FetchReports(ctx context.Context) ([]models.Report, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			r.id, r.id_user, r.id_product, r.reason, r.category_report, r.created_at,
			u.firstname, u.lastname, u.email,
			COALESCE(NULLIF(p.name, ''), p.titre), p.description, p.category,
			COALESCE(p.price, p.prix)
		FROM report_user r
		LEFT JOIN users u ON u.id = r.id_user
		LEFT JOIN product p ON p.id_product = r.id_product
		ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		var firstname, lastname, email sql.NullString
		var name, description, category sql.NullString
		var price sql.NullString

		if err := rows.Scan(&r.ID, &r.UserID, &r.ProductID, &r.Reason, &r.Category, &r.CreatedAt,
			&firstname, &lastname, &email,
			&name, &description, &category, &price); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		if firstname.Valid {
			r.Reporter = &models.ReportedBy{
				FirstName: firstname.String,
				LastName:  lastname.String,
				Email:     email.String,
			}
		}
		if name.Valid {
			listing := &models.ReportedListing{
				Name:        name.String,
				Description: description.String,
				Category:    category.String,
			}
			if price.Valid {
				// price stays zero when the column holds junk
				_ = listing.Price.Scan(price.String)
			}
			r.Listing = listing
		}

		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}

	return reports, nil
}
