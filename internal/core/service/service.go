package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

var _ port.ProductsService = (*Service)(nil)

type Service struct {
	products port.ProductsRepository
	blobs    port.BlobStore
	events   port.EventsProducer
	now      func() time.Time
}

func New(
	products port.ProductsRepository,
	blobs port.BlobStore,
	events port.EventsProducer,
) Service {
	return Service{
		products: products,
		blobs:    blobs,
		events:   events,
		now:      time.Now,
	}
}

// CreateProduct stores the optional upload first and then writes the row.
// A failed row write removes the blob that was just stored.
func (s Service) CreateProduct(
	ctx context.Context, f domain.ProductFields, upload *domain.Upload,
) (domain.Product, error) {
	const op = "Service.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := f.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	image, err := s.storeUpload(ctx, upload)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.products.Create(ctx, f, image)
	if err != nil {
		s.discardBlob(ctx, op, image)
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p := newProduct(id, f, image)
	s.emit(ctx, op, domain.EventCreated, p)
	return p, nil
}

func (s Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Service.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// UpdateProduct replaces the mutable fields of an existing product. The
// image is replaced only when an upload is supplied; the previous blob is
// removed after the row references the new one.
func (s Service) UpdateProduct(
	ctx context.Context, id int64, f domain.ProductFields, upload *domain.Upload,
) (domain.Product, error) {
	const op = "Service.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := f.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	oldImage, err := s.products.GetImageOf(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	newImage, err := s.storeUpload(ctx, upload)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	image := oldImage
	if newImage != "" {
		image = newImage
	}

	if err := s.products.Update(ctx, id, f, image); err != nil {
		s.discardBlob(ctx, op, newImage)
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if newImage != "" && oldImage != "" && oldImage != newImage {
		s.discardBlob(ctx, op, oldImage)
	}

	p := newProduct(id, f, image)
	s.emit(ctx, op, domain.EventUpdated, p)
	return p, nil
}

// DeleteProduct removes the row and then its image, in that order: a
// failure in between leaves an orphan blob, never a row referencing a
// missing image. Keep the order. A failed image removal is only logged.
func (s Service) DeleteProduct(ctx context.Context, id int64) error {
	const op = "Service.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	image, err := s.products.GetImageOf(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.discardBlob(ctx, op, image)

	s.emit(ctx, op, domain.EventDeleted, domain.Product{ID: id, Image: image})
	return nil
}

func (s Service) OpenImage(
	ctx context.Context, name string,
) (io.ReadCloser, error) {
	const op = "Service.OpenImage"

	rc, err := s.blobs.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rc, nil
}

func (s Service) storeUpload(
	ctx context.Context, upload *domain.Upload,
) (string, error) {
	if upload == nil {
		return "", nil
	}
	return s.blobs.Store(ctx, upload.Content, filepath.Ext(upload.Filename))
}

// discardBlob is the best-effort cleanup: the error is logged and dropped.
func (s Service) discardBlob(ctx context.Context, op, name string) {
	if name == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), name); err != nil {
		slog.Error(
			"failed to delete image, orphan blob left",
			"op", op, "image", name, "err", err,
		)
	}
}

func (s Service) emit(
	ctx context.Context, op string, t domain.EventType, p domain.Product,
) {
	evt := domain.ProductEvent{Type: t, Product: p, OccurredAt: s.now()}
	if err := s.events.ProduceEvent(context.WithoutCancel(ctx), evt); err != nil {
		slog.Warn(
			"failed to produce product event",
			"op", op, "event", t, "productID", p.ID, "err", err,
		)
	}
}

func newProduct(id int64, f domain.ProductFields, image string) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     f.Name,
		Category: f.Category,
		Price:    f.Price,
		Image:    image,
	}
}
