package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"github.com/ideuxs/toumai-admin/database"
	"github.com/ideuxs/toumai-admin/models"
)

// GetListings returns the board for one tab. The whole collection is
// re-fetched first; filtering happens on the snapshot, never in SQL. The tab
// is request-scoped: the shared controller filter is never written here, so
// concurrent requests for different tabs cannot see each other's subset.
func (h *Handlers) GetListings(c *gin.Context) {
	tab := models.FilterTab(c.DefaultQuery("tab", string(h.ctrl.Filter())))
	if !tab.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid tab, want one of all|pending|approved|declined"})
		return
	}

	h.ctrl.Refresh(c.Request.Context())

	listings := h.ctrl.VisibleFor(tab)
	if listings == nil {
		listings = []models.Listing{}
	}

	c.JSON(http.StatusOK, models.ListingPage{
		Listings: listings,
		Tab:      tab,
		Stats:    h.ctrl.Stats(),
	})
}

// GetListingStats returns the stat tile counts.
func (h *Handlers) GetListingStats(c *gin.Context) {
	h.ctrl.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, h.ctrl.Stats())
}

// GetListing returns the detail view: listing, resolved image URLs and the
// seller display name. A missing seller only blanks the name.
func (h *Handlers) GetListing(c *gin.Context) {
	id, err := listingID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid listing id"})
		return
	}

	listing, err := h.db.GetListing(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		log.WithError(err).Errorf("failed to load listing %d", id)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load listing"})
		return
	}

	detail := models.ListingDetail{
		Listing: *listing,
		Images:  h.resolver.Resolve(c.Request.Context(), id),
	}
	if detail.Images == nil {
		detail.Images = []string{}
	}

	if listing.OwnerID != "" {
		if name, err := h.db.GetUserName(c.Request.Context(), listing.OwnerID); err == nil {
			detail.SellerName = name
		}
	}

	c.JSON(http.StatusOK, detail)
}

// ReviewListing applies an approve or decline decision.
func (h *Handlers) ReviewListing(c *gin.Context) {
	id, err := listingID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid listing id"})
		return
	}

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.ctrl.Review(c.Request.Context(), id, req.Decision, c.GetString("admin_id")); err != nil {
		if errors.Is(err, database.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to review listing"})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "listing " + string(req.Decision)})
}

// DeleteListing removes a listing and its images.
func (h *Handlers) DeleteListing(c *gin.Context) {
	id, err := listingID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid listing id"})
		return
	}

	if err := h.ctrl.Remove(c.Request.Context(), id, c.GetString("admin_id")); err != nil {
		if errors.Is(err, database.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete listing"})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "listing deleted"})
}

func listingID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
