// Package images resolves display URLs for listing images. The structured
// image table is authoritative; the storage bucket folder is the fallback for
// listings whose producer never wrote metadata rows.
package images

import (
	"context"
	"fmt"

	"github.com/apex/log"
)

// DefaultPlaceholder is substituted in single-image contexts when neither
// source has anything to show.
const placeholderFormat = "https://via.placeholder.com/400x300?text=Image+%d"

// MetadataSource reads image URLs from the structured image table, in
// insertion order.
type MetadataSource interface {
	ListingImageURLs(ctx context.Context, listingID int64) ([]string, error)
}

// BucketSource lists objects under a folder prefix and derives public URLs.
type BucketSource interface {
	List(ctx context.Context, prefix string) ([]string, error)
	PublicURL(path string) string
}

// Resolver produces the ordered display URLs for a listing.
type Resolver struct {
	meta   MetadataSource
	bucket BucketSource
}

// NewResolver creates a resolver over the two image sources.
func NewResolver(meta MetadataSource, bucket BucketSource) *Resolver {
	return &Resolver{meta: meta, bucket: bucket}
}

// Folder returns the per-listing storage folder prefix.
func Folder(listingID int64) string {
	return fmt.Sprintf("products/product-%d", listingID)
}

// Placeholder returns the fallback URL for the image at an index.
func Placeholder(index int) string {
	return fmt.Sprintf(placeholderFormat, index+1)
}

// Resolve returns the display URLs for a listing: table rows when any exist
// (first row is primary), bucket objects otherwise, empty when both sources
// are empty. Source errors are logged and degrade to the next source; Resolve
// never fails.
func (r *Resolver) Resolve(ctx context.Context, listingID int64) []string {
	urls, err := r.meta.ListingImageURLs(ctx, listingID)
	if err != nil {
		log.WithError(err).Warnf("image table lookup failed for listing %d, falling back to bucket", listingID)
	} else if len(urls) > 0 {
		return urls
	}

	folder := Folder(listingID)
	names, err := r.bucket.List(ctx, folder)
	if err != nil {
		log.WithError(err).Warnf("bucket listing failed for listing %d", listingID)
		return nil
	}

	urls = make([]string, 0, len(names))
	for _, name := range names {
		urls = append(urls, r.bucket.PublicURL(folder+"/"+name))
	}
	return urls
}

// ResolveAt returns the URL at an index, or the fallback when the index is
// out of range or resolution found nothing. It never returns an error; an
// empty fallback selects the standard placeholder.
func (r *Resolver) ResolveAt(ctx context.Context, listingID int64, index int, fallback string) string {
	if fallback == "" {
		fallback = Placeholder(index)
	}
	if index < 0 {
		return fallback
	}
	urls := r.Resolve(ctx, listingID)
	if index >= len(urls) {
		return fallback
	}
	return urls[index]
}

// First returns the primary image URL, or the fallback.
func (r *Resolver) First(ctx context.Context, listingID int64, fallback string) string {
	return r.ResolveAt(ctx, listingID, 0, fallback)
}

// Carousel tracks the current position in a finite image sequence. With zero
// images every operation stays at index 0.
type Carousel struct {
	n int
	i int
}

// NewCarousel creates a carousel over n images, positioned at the first.
func NewCarousel(n int) *Carousel {
	if n < 0 {
		n = 0
	}
	return &Carousel{n: n}
}

// Index returns the current position.
func (c *Carousel) Index() int {
	return c.i
}

// Next advances to the following image, wrapping around.
func (c *Carousel) Next() int {
	if c.n == 0 {
		c.i = 0
		return 0
	}
	c.i = (c.i + 1) % c.n
	return c.i
}

// Prev steps back to the previous image, wrapping around.
func (c *Carousel) Prev() int {
	if c.n == 0 {
		c.i = 0
		return 0
	}
	c.i = (c.i - 1 + c.n) % c.n
	return c.i
}

// Seek jumps to an index; out-of-range values are ignored.
func (c *Carousel) Seek(i int) int {
	if i >= 0 && i < c.n {
		c.i = i
	}
	return c.i
}
