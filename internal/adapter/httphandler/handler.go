package httphandler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/niksmo/catalog/internal/core/domain"
	"github.com/niksmo/catalog/internal/core/port"
)

const deletedMessage = "Product deleted successfully"

type ProductsHandler struct {
	service port.ProductsService
}

// RegisterProducts mounts the product routes:
//
//	POST   /api/products      multipart name, category, price, image?
//	GET    /api/products
//	PUT    /api/products/:id  multipart name, category, price, image?
//	DELETE /api/products/:id
func RegisterProducts(r gin.IRouter, service port.ProductsService) {
	h := ProductsHandler{service}
	g := r.Group("/api/products")
	g.POST("", h.PostProduct)
	g.GET("", h.GetProducts)
	g.PUT("/:id", h.PutProduct)
	g.DELETE("/:id", h.DeleteProduct)
}

func (h ProductsHandler) PostProduct(c *gin.Context) {
	const op = "ProductsHandler.PostProduct"
	log := slog.With("op", op)

	fields, upload, closeUpload, err := parseProductForm(c)
	if err != nil {
		writeError(c, log, err)
		return
	}
	defer closeUpload()

	p, err := h.service.CreateProduct(c.Request.Context(), fields, upload)
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Info("product created", "id", p.ID, "image", p.Image)
	c.JSON(http.StatusOK, fromDomain(p))
}

func (h ProductsHandler) GetProducts(c *gin.Context) {
	const op = "ProductsHandler.GetProducts"
	log := slog.With("op", op)

	ps, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, fromDomainList(ps))
}

func (h ProductsHandler) PutProduct(c *gin.Context) {
	const op = "ProductsHandler.PutProduct"
	log := slog.With("op", op)

	id, err := parseID(c)
	if err != nil {
		writeError(c, log, err)
		return
	}

	fields, upload, closeUpload, err := parseProductForm(c)
	if err != nil {
		writeError(c, log, err)
		return
	}
	defer closeUpload()

	p, err := h.service.UpdateProduct(c.Request.Context(), id, fields, upload)
	if err != nil {
		writeError(c, log, err)
		return
	}

	log.Info("product updated", "id", p.ID, "image", p.Image)
	c.JSON(http.StatusOK, fromDomain(p))
}

func (h ProductsHandler) DeleteProduct(c *gin.Context) {
	const op = "ProductsHandler.DeleteProduct"
	log := slog.With("op", op)

	id, err := parseID(c)
	if err != nil {
		writeError(c, log, err)
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, log, err)
		return
	}

	log.Info("product deleted", "id", id)
	c.JSON(http.StatusOK, MessageResponse{Message: deletedMessage})
}

type UploadsHandler struct {
	service port.ProductsService
}

// RegisterUploads serves stored images read-only under /uploads/:name.
func RegisterUploads(r gin.IRouter, service port.ProductsService) {
	h := UploadsHandler{service}
	r.GET("/uploads/:name", h.GetUpload)
	r.HEAD("/uploads/:name", h.GetUpload)
}

func (h UploadsHandler) GetUpload(c *gin.Context) {
	const op = "UploadsHandler.GetUpload"
	log := slog.With("op", op)

	name := c.Param("name")
	rc, err := h.service.OpenImage(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			err = fmt.Errorf("%w: %w", domain.ErrBlobNotFound, err)
		}
		writeError(c, log, err)
		return
	}
	defer func() { _ = rc.Close() }()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}

func parseID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid product id %q", domain.ErrValidation, raw)
	}
	return id, nil
}

// parseProductForm reads the product fields and the optional "image" file.
// The returned close func is always safe to call.
func parseProductForm(
	c *gin.Context,
) (domain.ProductFields, *domain.Upload, func(), error) {
	noop := func() {}

	price, err := domain.ParsePrice(c.PostForm("price"))
	if err != nil {
		return domain.ProductFields{}, nil, noop, err
	}

	fields, err := domain.NewProductFields(
		c.PostForm("name"), c.PostForm("category"), price,
	)
	if err != nil {
		return domain.ProductFields{}, nil, noop, err
	}

	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile),
		errors.Is(err, http.ErrNotMultipart):
		return fields, nil, noop, nil
	case err != nil:
		return domain.ProductFields{}, nil, noop,
			fmt.Errorf("%w: malformed multipart form: %w", domain.ErrValidation, err)
	}

	f, err := fh.Open()
	if err != nil {
		return domain.ProductFields{}, nil, noop, err
	}
	upload := &domain.Upload{Filename: fh.Filename, Content: f}
	return fields, upload, closeFunc(f), nil
}

func closeFunc(f multipart.File) func() {
	return func() { _ = f.Close() }
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrBlobNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, log *slog.Logger, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
	} else {
		log.Warn("request rejected", "status", status, "err", err)
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
