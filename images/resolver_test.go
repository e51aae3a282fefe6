package images

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type stubMeta struct {
	urls map[int64][]string
	err  error
}

func (s *stubMeta) ListingImageURLs(ctx context.Context, listingID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.urls[listingID], nil
}

type stubBucket struct {
	objects map[string][]string
	err     error
}

func (s *stubBucket) List(ctx context.Context, prefix string) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.objects[prefix], nil
}

func (s *stubBucket) PublicURL(path string) string {
	return "https://cdn.example.com/object/public/product-images/" + path
}

func TestResolvePrefersTableRows(t *testing.T) {
	meta := &stubMeta{urls: map[int64][]string{
		7: {"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
	}}
	bucket := &stubBucket{objects: map[string][]string{
		"products/product-7": {"stale.jpg"},
	}}
	r := NewResolver(meta, bucket)

	got := r.Resolve(context.Background(), 7)
	want := []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveFallsBackToBucket(t *testing.T) {
	meta := &stubMeta{}
	bucket := &stubBucket{objects: map[string][]string{
		"products/product-9": {"1.jpg", "2.jpg"},
	}}
	r := NewResolver(meta, bucket)

	got := r.Resolve(context.Background(), 9)
	want := []string{
		"https://cdn.example.com/object/public/product-images/products/product-9/1.jpg",
		"https://cdn.example.com/object/public/product-images/products/product-9/2.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveTableErrorDegradesToBucket(t *testing.T) {
	meta := &stubMeta{err: errors.New("bad connection")}
	bucket := &stubBucket{objects: map[string][]string{
		"products/product-3": {"x.jpg"},
	}}
	r := NewResolver(meta, bucket)

	got := r.Resolve(context.Background(), 3)
	if len(got) != 1 {
		t.Errorf("Resolve returned %d urls, want 1", len(got))
	}
}

func TestResolveBothSourcesEmpty(t *testing.T) {
	r := NewResolver(&stubMeta{}, &stubBucket{})
	if got := r.Resolve(context.Background(), 5); len(got) != 0 {
		t.Errorf("Resolve = %v, want empty", got)
	}
}

func TestResolveBucketErrorYieldsNothing(t *testing.T) {
	r := NewResolver(&stubMeta{}, &stubBucket{err: errors.New("timeout")})
	if got := r.Resolve(context.Background(), 5); got != nil {
		t.Errorf("Resolve = %v, want nil", got)
	}
}

func TestResolveAt(t *testing.T) {
	meta := &stubMeta{urls: map[int64][]string{
		1: {"first.jpg", "second.jpg"},
	}}
	r := NewResolver(meta, &stubBucket{})
	ctx := context.Background()

	if got := r.ResolveAt(ctx, 1, 1, ""); got != "second.jpg" {
		t.Errorf("ResolveAt(1) = %q, want second.jpg", got)
	}
	if got := r.ResolveAt(ctx, 1, 5, "fallback.jpg"); got != "fallback.jpg" {
		t.Errorf("out-of-range ResolveAt = %q, want fallback.jpg", got)
	}
	if got := r.ResolveAt(ctx, 1, -1, "fallback.jpg"); got != "fallback.jpg" {
		t.Errorf("negative-index ResolveAt = %q, want fallback.jpg", got)
	}
	if got := r.ResolveAt(ctx, 2, 2, ""); got != "https://via.placeholder.com/400x300?text=Image+3" {
		t.Errorf("placeholder ResolveAt = %q", got)
	}
	if got := r.First(ctx, 1, ""); got != "first.jpg" {
		t.Errorf("First = %q, want first.jpg", got)
	}
}

func TestFolder(t *testing.T) {
	if got := Folder(42); got != "products/product-42" {
		t.Errorf("Folder(42) = %q", got)
	}
}

func TestCarousel(t *testing.T) {
	c := NewCarousel(3)
	if c.Index() != 0 {
		t.Fatalf("initial index = %d, want 0", c.Index())
	}
	if got := c.Next(); got != 1 {
		t.Errorf("Next = %d, want 1", got)
	}
	if got := c.Next(); got != 2 {
		t.Errorf("Next = %d, want 2", got)
	}
	if got := c.Next(); got != 0 {
		t.Errorf("Next wrap = %d, want 0", got)
	}
	if got := c.Prev(); got != 2 {
		t.Errorf("Prev wrap = %d, want 2", got)
	}
	if got := c.Seek(1); got != 1 {
		t.Errorf("Seek(1) = %d, want 1", got)
	}
	if got := c.Seek(7); got != 1 {
		t.Errorf("Seek out of range = %d, want 1 (unchanged)", got)
	}
}

func TestCarouselEmpty(t *testing.T) {
	c := NewCarousel(0)
	if got := c.Next(); got != 0 {
		t.Errorf("Next on empty = %d, want 0", got)
	}
	if got := c.Prev(); got != 0 {
		t.Errorf("Prev on empty = %d, want 0", got)
	}
	if got := NewCarousel(-2).Index(); got != 0 {
		t.Errorf("negative size index = %d, want 0", got)
	}
}
