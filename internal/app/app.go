package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/catalog/config"
	"github.com/niksmo/catalog/internal/adapter"
	"github.com/niksmo/catalog/internal/adapter/blob"
	"github.com/niksmo/catalog/internal/adapter/httphandler"
	"github.com/niksmo/catalog/internal/adapter/kafka"
	"github.com/niksmo/catalog/internal/adapter/metrics"
	"github.com/niksmo/catalog/internal/adapter/storage"
	"github.com/niksmo/catalog/internal/core/port"
	"github.com/niksmo/catalog/internal/core/service"
	"github.com/niksmo/catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"
)

type App struct {
	ctx        context.Context
	cfg        config.Config
	metrics    *metrics.Metrics
	sqldb      storage.SQLDB
	blobs      port.BlobStore
	events     port.EventsProducer
	service    service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg, metrics: metrics.New()}

	app.initLogger()
	app.initStorage()
	app.initBlobStore()
	app.initEventsProducer()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.SlogLevel()}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

// StorageConfig maps the db section of the config to the storage adapter.
func StorageConfig(cfg config.Config) storage.Config {
	c := cfg.DB
	return storage.Config{
		Driver:          c.Driver,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Name:            c.Name,
		SSLMode:         c.SSLMode,
		Path:            c.Path,
		ConnectAttempts: c.ConnectAttempts,
	}
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	cfg := StorageConfig(app.cfg)
	sqldb, err := storage.NewSQLDB(app.ctx, cfg)
	if err != nil {
		app.fallDown(op, err)
	}

	if app.cfg.DB.AutoMigrate {
		if err := storage.Migrate(cfg, false); err != nil {
			sqldb.Close()
			app.fallDown(op, err)
		}
	}
	app.sqldb = sqldb
}

func (app *App) initBlobStore() {
	const op = "App.initBlobStore"

	var store port.BlobStore
	switch blob.Driver(app.cfg.Blob.Driver) {
	case blob.DriverS3:
		c := app.cfg.Blob.S3
		s3Store, err := blob.NewS3Store(app.ctx, blob.S3Config{
			Bucket:          c.Bucket,
			Region:          c.Region,
			Endpoint:        c.Endpoint,
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
			PathStyle:       c.PathStyle,
		})
		if err != nil {
			app.fallDown(op, err)
		}
		store = s3Store
	default:
		store = blob.NewFSStore(app.cfg.Blob.UploadsDir)
	}

	app.blobs = app.metrics.InstrumentBlobStore(store)
}

func (app *App) initEventsProducer() {
	const op = "App.initEventsProducer"
	broker := app.cfg.Broker

	if !broker.Enabled() {
		slog.Info("no seed brokers configured, product events are disabled")
		app.events = kafka.NoopProducer{}
		return
	}

	var kgoOpts []kgo.Opt
	var srOpts []sr.ClientOpt
	srOpts = append(srOpts, sr.URLs(broker.SchemaRegistryURLs...))
	if broker.TLS.Enabled() {
		tlsConfig, err := adapter.MakeTLSConfig(
			broker.TLS.CA, broker.TLS.Cert, broker.TLS.Key,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		kgoOpts = append(kgoOpts, kgo.DialTLSConfig(tlsConfig))
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeProductEventV1(
		app.ctx,
		schema.SubjectOpt(broker.ProductEventsTopic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx, broker.SeedBrokers, broker.ProductEventsTopic, kgoOpts...,
		),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.events = producer
}

func (app *App) initCoreService() {
	app.service = service.New(
		storage.NewProductsRepository(app.sqldb),
		app.blobs,
		app.events,
	)
}

func (app *App) initInboundAdapters() {
	router := httphandler.NewRouter(httphandler.RouterConfig{
		Service:   app.service,
		PublicDir: app.cfg.PublicDir,
		DB:        app.sqldb,
		Metrics:   app.metrics,
	})
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr(), router)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running", "addr", app.httpServer.Addr())
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.events.Close()
	app.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
