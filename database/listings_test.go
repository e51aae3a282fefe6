package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/shopspring/decimal"

	"github.com/ideuxs/toumai-admin/models"
)

var (
	mockDB *sql.DB
	mock   sqlmock.Sqlmock
	d      *Database
)

func setUp() {
	mockDB, mock, _ = sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	d = NewDatabaseFromConn(mockDB)
}

func tearDown() {
	mockDB.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var listingCols = []string{"id_product", "name", "description", "price", "category", "state", "owner_id", "created_at"}

func TestFetchListings(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery("FROM product ORDER BY created_at DESC").
			WillReturnRows(sqlmock.NewRows(listingCols).
				AddRow(2, "Phone charger", "barely used", "15.00", "electronics", "pending", "u2", now).
				AddRow(1, "Old bicycle", "", "80.50", "sport", "approved", "u1", now.Add(-time.Hour)))

		listings, err := d.FetchListings(context.Background())
		if err != nil {
			t.Fatalf("FetchListings: %v", err)
		}
		if len(listings) != 2 {
			t.Fatalf("got %d listings, want 2", len(listings))
		}
		if listings[0].ID != 2 || listings[0].State != models.StatePending {
			t.Errorf("first listing = %+v", listings[0])
		}
		if !listings[1].Price.Equal(decimal.RequireFromString("80.50")) {
			t.Errorf("price = %s, want 80.50", listings[1].Price)
		}
	})
}

func TestGetListingNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("FROM product WHERE id_product").
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		_, err := d.GetListing(context.Background(), 99)
		if !errors.Is(err, ErrListingNotFound) {
			t.Errorf("err = %v, want ErrListingNotFound", err)
		}
	})
}

func TestGetListingOwner(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COALESCE\\(owner_id, ''\\) FROM product").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("u7"))

		owner, err := d.GetListingOwner(context.Background(), 7)
		if err != nil {
			t.Fatalf("GetListingOwner: %v", err)
		}
		if owner != "u7" {
			t.Errorf("owner = %q, want u7", owner)
		}
	})
}

func TestUpdateListingState(t *testing.T) {
	it(func() {
		mock.ExpectExec("UPDATE product SET state = \\?, etat = \\?").
			WithArgs("approved", "approved", int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT COALESCE\\(owner_id, ''\\), COALESCE\\(state, etat, 'pending'\\)").
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"owner_id", "state", "id_product", "name"}).
				AddRow("u5", "approved", 5, "Wooden table"))

		p, err := d.UpdateListingState(context.Background(), 5, models.StateApproved)
		if err != nil {
			t.Fatalf("UpdateListingState: %v", err)
		}
		if p.OwnerID != "u5" || p.State != models.StateApproved || p.Name != "Wooden table" {
			t.Errorf("projection = %+v", p)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUpdateListingStateMissingRow(t *testing.T) {
	it(func() {
		mock.ExpectExec("UPDATE product SET state = \\?, etat = \\?").
			WithArgs("declined", "declined", int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		_, err := d.UpdateListingState(context.Background(), 99, models.StateDeclined)
		if !errors.Is(err, ErrListingNotFound) {
			t.Errorf("err = %v, want ErrListingNotFound", err)
		}
	})
}

func TestUpdateListingStateRejectsInvalid(t *testing.T) {
	it(func() {
		_, err := d.UpdateListingState(context.Background(), 5, models.ModerationState("archived"))
		if err == nil {
			t.Fatal("expected error for invalid state")
		}
	})
}

func TestDeleteListing(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM product WHERE id_product").
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := d.DeleteListing(context.Background(), 3); err != nil {
			t.Fatalf("DeleteListing: %v", err)
		}
	})
}

func TestDeleteListingMissingRow(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM product WHERE id_product").
			WithArgs(int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		if err := d.DeleteListing(context.Background(), 99); !errors.Is(err, ErrListingNotFound) {
			t.Errorf("err = %v, want ErrListingNotFound", err)
		}
	})
}

func TestListingImageURLs(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT image_url FROM product_images").
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"image_url"}).
				AddRow("https://cdn/a.jpg").
				AddRow("https://cdn/b.jpg"))

		urls, err := d.ListingImageURLs(context.Background(), 4)
		if err != nil {
			t.Fatalf("ListingImageURLs: %v", err)
		}
		if len(urls) != 2 || urls[0] != "https://cdn/a.jpg" {
			t.Errorf("urls = %v", urls)
		}
	})
}

func TestDeleteListingImages(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM product_images WHERE product_id").
			WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := d.DeleteListingImages(context.Background(), 4)
		if err != nil {
			t.Fatalf("DeleteListingImages: %v", err)
		}
		if n != 3 {
			t.Errorf("rows removed = %d, want 3", n)
		}
	})
}

func TestDeleteListingImagesRowCountError(t *testing.T) {
	it(func() {
		mock.ExpectExec("DELETE FROM product_images WHERE product_id").
			WithArgs(int64(4)).
			WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not report rows")))

		if _, err := d.DeleteListingImages(context.Background(), 4); err == nil {
			t.Fatal("expected error when the affected row count is unavailable")
		}
	})
}
