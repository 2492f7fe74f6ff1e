package httphandler_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/catalog/internal/adapter/blob"
	"github.com/niksmo/catalog/internal/adapter/httphandler"
	"github.com/niksmo/catalog/internal/adapter/kafka"
	"github.com/niksmo/catalog/internal/adapter/metrics"
	"github.com/niksmo/catalog/internal/adapter/storage"
	"github.com/niksmo/catalog/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	dbCfg := storage.Config{
		Driver:          storage.DriverSQLite,
		Path:            filepath.Join(dir, "catalog.db"),
		ConnectAttempts: 1,
	}
	require.NoError(t, storage.Migrate(dbCfg, false))

	db, err := storage.NewSQLDB(t.Context(), dbCfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	uploads := filepath.Join(dir, "uploads")
	m := metrics.New()
	svc := service.New(
		storage.NewProductsRepository(db),
		m.InstrumentBlobStore(blob.NewFSStore(uploads)),
		kafka.NoopProducer{},
	)
	return httphandler.NewRouter(httphandler.RouterConfig{
		Service: svc,
		DB:      db,
		Metrics: m,
	}), uploads
}

func TestCatalogEndToEnd(t *testing.T) {
	r, uploads := newCatalog(t)

	body, ct := multipartBody(t, map[string]string{
		"name": "Pen", "category": "Stationery", "price": "1.5",
	}, &formFile{"pen.png", "PNG-A"})
	rec := do(t, r, http.MethodPost, "/api/products", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created httphandler.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Image)
	assert.Equal(t, "1.50", string(created.Price))
	assert.Equal(t, ".png", filepath.Ext(*created.Image))
	assert.FileExists(t, filepath.Join(uploads, *created.Image))

	rec = do(t, r, http.MethodGet, "/uploads/"+*created.Image, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PNG-A", rec.Body.String())

	rec = do(t, r, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []httphandler.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, "Pen", listed[0].Name)
	assert.Equal(t, "1.50", string(listed[0].Price))

	// replace the image, the old file goes away
	oldImage := *created.Image
	body, ct = multipartBody(t, map[string]string{
		"name": "Pen", "category": "Office", "price": "2",
	}, &formFile{"pen.JPG", "JPG-B"})
	target := "/api/products/" + jsonNumber(created.ID)
	rec = do(t, r, http.MethodPut, target, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated httphandler.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.Image)
	assert.Equal(t, ".jpg", filepath.Ext(*updated.Image))
	assert.Equal(t, "2.00", string(updated.Price))
	assert.FileExists(t, filepath.Join(uploads, *updated.Image))
	assert.NoFileExists(t, filepath.Join(uploads, oldImage))

	// unsupported image leaves nothing behind
	body, ct = multipartBody(t, map[string]string{
		"name": "Gif", "category": "Anim", "price": "1",
	}, &formFile{"anim.gif", "GIF"})
	rec = do(t, r, http.MethodPost, "/api/products", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	entries, err := os.ReadDir(uploads)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// out of range price is refused and the list stays readable
	body, ct = multipartBody(t, map[string]string{
		"name": "Huge", "category": "Anim", "price": "1e400",
	}, nil)
	rec = do(t, r, http.MethodPost, "/api/products", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":2.00`)

	rec = do(t, r, http.MethodDelete, target, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product deleted successfully"}`, rec.Body.String())
	assert.NoFileExists(t, filepath.Join(uploads, *updated.Image))

	rec = do(t, r, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, r, http.MethodDelete, target, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_http_requests_total")
	assert.Contains(t, rec.Body.String(), `catalog_blob_operations_total{op="store",result="ok"} 2`)
}

func jsonNumber(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
