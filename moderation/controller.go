// Package moderation owns the listing review workflow: the in-memory listing
// snapshot, the active filter tab with derived counts, and the
// approve/decline/delete sequences with their best-effort side effects.
package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/ideuxs/toumai-admin/images"
	"github.com/ideuxs/toumai-admin/models"
)

// ListingStore is the repository adapter surface the controller drives.
type ListingStore interface {
	FetchListings(ctx context.Context) ([]models.Listing, error)
	GetListingOwner(ctx context.Context, id int64) (string, error)
	UpdateListingState(ctx context.Context, id int64, state models.ModerationState) (*models.ListingProjection, error)
	DeleteListingImages(ctx context.Context, id int64) (int64, error)
	DeleteListing(ctx context.Context, id int64) error
}

// UserStore looks up listing owners for notification purposes.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// ObjectStore enumerates and deletes stored image files.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, paths []string) error
}

// Notifier dispatches a push notification to one device.
type Notifier interface {
	Send(ctx context.Context, token, title, subtitle, body string) error
}

// EventSink receives moderation audit events. Sinks are best-effort; a
// failing sink never fails the operation that produced the event.
type EventSink interface {
	RecordModerationEvent(ctx context.Context, ev models.ModerationEvent) error
}

// Controller is the moderation workflow controller. It holds the
// authoritative client-side view of "all listings currently known" and the
// active filter, and executes review and removal.
type Controller struct {
	mu       sync.RWMutex
	listings []models.Listing
	filter   models.FilterTab
	stats    models.Stats

	store    ListingStore
	users    UserStore
	objects  ObjectStore
	notifier Notifier
	sinks    []EventSink
}

// NewController creates a controller. The board opens on the pending tab,
// matching the console default.
func NewController(store ListingStore, users UserStore, objects ObjectStore, notifier Notifier, sinks ...EventSink) *Controller {
	return &Controller{
		store:    store,
		users:    users,
		objects:  objects,
		notifier: notifier,
		sinks:    sinks,
		filter:   models.TabPending,
	}
}

// Refresh fetches the full listing collection and unconditionally replaces
// the held snapshot. On transport error the previous snapshot is left
// untouched and the error is only logged: stale-but-consistent beats empty.
func (c *Controller) Refresh(ctx context.Context) {
	listings, err := c.store.FetchListings(ctx)
	if err != nil {
		log.WithError(err).Error("listing refresh failed, keeping previous snapshot")
		return
	}

	c.mu.Lock()
	c.listings = listings
	c.stats = computeStats(listings)
	c.mu.Unlock()
}

// SetFilter switches the active tab. Unknown tabs are ignored. No network
// effect.
func (c *Controller) SetFilter(tab models.FilterTab) {
	if !tab.Valid() {
		return
	}
	c.mu.Lock()
	c.filter = tab
	c.mu.Unlock()
}

// Filter returns the active tab.
func (c *Controller) Filter() models.FilterTab {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// Visible returns the subset of the snapshot selected by the active tab.
func (c *Controller) Visible() []models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filterListings(c.listings, c.filter)
}

// VisibleFor returns the subset a given tab would show, without changing the
// active tab.
func (c *Controller) VisibleFor(tab models.FilterTab) []models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filterListings(c.listings, tab)
}

// Stats returns the derived per-state counts.
func (c *Controller) Stats() models.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Review executes an approve or decline decision on a listing. The state
// write is the commit point; the owner notification is fire-and-forget and
// its failure never rolls the decision back. Finishes with a refresh so the
// session's own view catches up with its write.
func (c *Controller) Review(ctx context.Context, listingID int64, decision models.ModerationState, actor string) error {
	if decision != models.StateApproved && decision != models.StateDeclined {
		return fmt.Errorf("invalid decision %q", decision)
	}

	var ownerID string
	var updated *models.ListingProjection

	err := runSteps(ctx, "review", listingID, []step{
		{
			name:     "owner lookup",
			critical: true,
			run: func(ctx context.Context) error {
				var err error
				ownerID, err = c.store.GetListingOwner(ctx, listingID)
				return err
			},
		},
		{
			name:     "state write",
			critical: true,
			run: func(ctx context.Context) error {
				var err error
				updated, err = c.store.UpdateListingState(ctx, listingID, decision)
				return err
			},
		},
		{
			name: "owner notification",
			run: func(ctx context.Context) error {
				return c.notifyOwner(ctx, ownerID, decisionMessage(decision, updated.Name))
			},
		},
		{
			name: "audit event",
			run: func(ctx context.Context) error {
				c.emit(ctx, models.ModerationEvent{
					Actor:      actor,
					Action:     "review." + string(decision),
					TargetType: "listing",
					TargetID:   fmt.Sprintf("%d", listingID),
					Details:    updated,
					Timestamp:  time.Now().UTC(),
				})
				return nil
			},
		},
	})
	if err != nil {
		return err
	}

	c.Refresh(ctx)
	return nil
}

// Remove deletes a listing and everything hanging off it. The owner is
// notified while the data to build the message still exists; children
// (stored files, metadata rows) go before the parent row. Only the primary
// row deletion can fail the operation; an orphaned file or metadata row is an
// accepted residual.
func (c *Controller) Remove(ctx context.Context, listingID int64, actor string) error {
	err := runSteps(ctx, "remove", listingID, []step{
		{
			name: "owner notification",
			run: func(ctx context.Context) error {
				listing, err := c.lookupForRemoval(ctx, listingID)
				if err != nil {
					return err
				}
				return c.notifyOwner(ctx, listing.OwnerID, removalMessage(listing.Name))
			},
		},
		{
			name: "storage cleanup",
			run: func(ctx context.Context) error {
				folder := images.Folder(listingID)
				names, err := c.objects.List(ctx, folder)
				if err != nil {
					return err
				}
				paths := make([]string, 0, len(names))
				for _, name := range names {
					paths = append(paths, folder+"/"+name)
				}
				return c.objects.Remove(ctx, paths)
			},
		},
		{
			name: "image metadata cleanup",
			run: func(ctx context.Context) error {
				_, err := c.store.DeleteListingImages(ctx, listingID)
				return err
			},
		},
		{
			name:     "listing delete",
			critical: true,
			run: func(ctx context.Context) error {
				return c.store.DeleteListing(ctx, listingID)
			},
		},
		{
			name: "audit event",
			run: func(ctx context.Context) error {
				c.emit(ctx, models.ModerationEvent{
					Actor:      actor,
					Action:     "remove",
					TargetType: "listing",
					TargetID:   fmt.Sprintf("%d", listingID),
					Timestamp:  time.Now().UTC(),
				})
				return nil
			},
		},
	})
	if err != nil {
		return err
	}

	c.Refresh(ctx)
	return nil
}

// lookupForRemoval finds the owner and display name needed for the removal
// notification. Failures here are tolerated by the caller.
func (c *Controller) lookupForRemoval(ctx context.Context, listingID int64) (*models.ListingProjection, error) {
	ownerID, err := c.store.GetListingOwner(ctx, listingID)
	if err != nil {
		return nil, err
	}
	// Reuse the review projection shape; only owner and name matter here.
	name := ""
	if listings := c.snapshot(); listings != nil {
		for _, l := range listings {
			if l.ID == listingID {
				name = l.Name
				break
			}
		}
	}
	return &models.ListingProjection{ID: listingID, OwnerID: ownerID, Name: name}, nil
}

func (c *Controller) snapshot() []models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listings
}

type message struct {
	title    string
	subtitle string
	body     string
}

func decisionMessage(decision models.ModerationState, listingName string) message {
	if decision == models.StateApproved {
		return message{
			title:    "Listing approved",
			subtitle: "Toumai Market",
			body:     fmt.Sprintf("Good news! Your listing %q has been approved and is now live.", listingName),
		}
	}
	return message{
		title:    "Listing declined",
		subtitle: "Toumai Market",
		body:     fmt.Sprintf("Your listing %q was declined by the moderation team.", listingName),
	}
}

func removalMessage(listingName string) message {
	if listingName == "" {
		return message{
			title:    "Listing removed",
			subtitle: "Toumai Market",
			body:     "One of your listings was removed by the moderation team.",
		}
	}
	return message{
		title:    "Listing removed",
		subtitle: "Toumai Market",
		body:     fmt.Sprintf("Your listing %q was removed by the moderation team.", listingName),
	}
}

// notifyOwner looks up the owner's device token and dispatches the push.
// Owners without a registered device are silently skipped.
func (c *Controller) notifyOwner(ctx context.Context, ownerID string, msg message) error {
	user, err := c.users.GetUser(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("owner lookup for notification: %w", err)
	}
	if user.DeviceToken == "" {
		log.Debugf("owner %s has no device token, skipping notification", ownerID)
		return nil
	}
	return c.notifier.Send(ctx, user.DeviceToken, msg.title, msg.subtitle, msg.body)
}

// emit fans an audit event out to every sink. Sink failures are logged only.
func (c *Controller) emit(ctx context.Context, ev models.ModerationEvent) {
	for _, sink := range c.sinks {
		if err := sink.RecordModerationEvent(ctx, ev); err != nil {
			log.WithError(err).Warnf("moderation event sink failed for %s %s", ev.Action, ev.TargetID)
		}
	}
}

// filterListings computes the visible subset for a tab.
func filterListings(listings []models.Listing, tab models.FilterTab) []models.Listing {
	if tab == models.TabAll {
		out := make([]models.Listing, len(listings))
		copy(out, listings)
		return out
	}
	var out []models.Listing
	for _, l := range listings {
		if string(l.State) == string(tab) {
			out = append(out, l)
		}
	}
	return out
}

// computeStats derives the per-state counts for a collection.
func computeStats(listings []models.Listing) models.Stats {
	s := models.Stats{Total: len(listings)}
	for _, l := range listings {
		switch l.State {
		case models.StatePending:
			s.Pending++
		case models.StateApproved:
			s.Approved++
		case models.StateDeclined:
			s.Declined++
		}
	}
	return s
}
