package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ModerationState is the review state of a listing. Listings are created
// pending by the marketplace app and only ever move to approved or declined.
type ModerationState string

const (
	StatePending  ModerationState = "pending"
	StateApproved ModerationState = "approved"
	StateDeclined ModerationState = "declined"
)

// Valid reports whether s is one of the three known states.
func (s ModerationState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateDeclined:
		return true
	}
	return false
}

// FilterTab selects the visible subset of the listing board.
type FilterTab string

const (
	TabAll      FilterTab = "all"
	TabPending  FilterTab = "pending"
	TabApproved FilterTab = "approved"
	TabDeclined FilterTab = "declined"
)

// Valid reports whether t is a known tab.
func (t FilterTab) Valid() bool {
	switch t {
	case TabAll, TabPending, TabApproved, TabDeclined:
		return true
	}
	return false
}

// Listing is the canonical listing record. Legacy producer columns
// (titre/prix/etat) are folded into these fields by the database layer and
// never leak past it.
type Listing struct {
	ID          int64           `json:"id_product"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	State       ModerationState `json:"state"`
	OwnerID     string          `json:"owner_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListingProjection is the fixed projection returned by a state write.
type ListingProjection struct {
	ID      int64           `json:"id_product"`
	OwnerID string          `json:"owner_id"`
	State   ModerationState `json:"state"`
	Name    string          `json:"name"`
}

// Stats holds the per-state counts derived from the listing collection.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Declined int `json:"declined"`
}

// User is a marketplace user row as read for moderation purposes.
type User struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstname"`
	LastName    string `json:"lastname"`
	Email       string `json:"email"`
	DeviceToken string `json:"device_token,omitempty"`
}

// DisplayName returns the name shown to moderators and used in notifications.
func (u *User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Report is a user complaint against a listing. Reports are immutable; the
// admin surface only reads them.
type Report struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"id_user"`
	ProductID int64     `json:"id_product"`
	Reason    string    `json:"reason"`
	Category  string    `json:"category_report"`
	CreatedAt time.Time `json:"created_at"`

	// Denormalized for display, populated by the join in the reports query.
	Reporter *ReportedBy      `json:"user,omitempty"`
	Listing  *ReportedListing `json:"product,omitempty"`
}

// ReportedBy carries the reporter fields shown in the reports table.
type ReportedBy struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

// ReportedListing carries the reported listing fields shown in the detail view.
type ReportedListing struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price,omitempty"`
}

// AdminUser is a staff account allowed into the console.
type AdminUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ModerationEvent is an audit record of a moderation action. It is written
// best-effort to the events table and fanned out to the event sinks.
type ModerationEvent struct {
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Details    any       `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// LoginRequest is the staff sign-in request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the authentication response.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// RefreshTokenRequest asks for a new token pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest exchanges an emailed reset token for a new password.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// ReviewRequest carries a moderation decision for a listing.
type ReviewRequest struct {
	Decision ModerationState `json:"decision" binding:"required,oneof=approved declined"`
}

// BroadcastRequest is a global push notification. Limits match the console
// form: title and body required, title capped at 100 runes, body at 500.
type BroadcastRequest struct {
	Title    string `json:"title" binding:"required,max=100"`
	Subtitle string `json:"subtitle" binding:"omitempty,max=100"`
	Body     string `json:"body" binding:"required,max=500"`
}

// BroadcastResponse mirrors the dispatch function response.
type BroadcastResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ListingDetail is the modal view: the listing plus resolved image URLs and
// the seller display name.
type ListingDetail struct {
	Listing    Listing  `json:"listing"`
	Images     []string `json:"images"`
	SellerName string   `json:"seller_name,omitempty"`
}

// ListingPage is the board view for one tab.
type ListingPage struct {
	Listings []Listing `json:"listings"`
	Tab      FilterTab `json:"tab"`
	Stats    Stats     `json:"stats"`
}

// MessageResponse is a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
