package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/payment-aggregator/internal/adapter/cache"
	"github.com/example/payment-aggregator/internal/adapter/httpapi"
	"github.com/example/payment-aggregator/internal/adapter/kafka"
	"github.com/example/payment-aggregator/internal/adapter/natsstan"
	"github.com/example/payment-aggregator/internal/adapter/repo"
	"github.com/example/payment-aggregator/internal/adapter/sink"
	"github.com/example/payment-aggregator/internal/adapter/stream"
	"github.com/example/payment-aggregator/internal/adapter/stripepoll"
	"github.com/example/payment-aggregator/internal/analytics"
	"github.com/example/payment-aggregator/internal/config"
	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/registry"
	"github.com/example/payment-aggregator/internal/usecase"
)

// App — собранный сервис. Слушатели регистрируются здесь и только здесь.
type App struct {
	Registry  *registry.Registry
	Store     *cache.MemoryTransactionStore
	Stream    *stream.Broadcaster
	Ingest    *usecase.IngestWebhook
	Router    http.Handler
	exporters []*sink.Dispatcher
}

func NewApp(cfg *config.Config) (*App, error) {
	reg := registry.New(cfg.Secrets)
	store := cache.NewMemoryTransactionStore()
	broadcaster := stream.NewBroadcaster(cfg.StreamBuffer)
	ingest := usecase.NewIngestWebhook(reg)

	// порядок важен: сначала хранилище, затем рассылка
	if err := ingest.OnTransaction(store.Save); err != nil {
		return nil, err
	}
	if err := ingest.OnTransaction(broadcaster.Push); err != nil {
		return nil, err
	}

	stats := usecase.ComputeStatistics{
		Store:  store,
		Series: analytics.NewSeriesGenerator(cfg.Series, nil),
	}
	status := usecase.SystemStatus{Registry: reg}
	return &App{
		Registry: reg,
		Store:    store,
		Stream:   broadcaster,
		Ingest:   ingest,
		Router:   httpapi.NewServer(reg, ingest, stats, status, broadcaster).Router,
	}, nil
}

// AddExporter подключает внешнего получателя через очередь.
func (a *App) AddExporter(name string, exp domain.Exporter, buffer int) error {
	d := sink.NewDispatcher(name, exp, buffer)
	if err := a.Ingest.OnTransaction(d.Listen); err != nil {
		return err
	}
	a.exporters = append(a.exporters, d)
	return nil
}

func (a *App) logTrustModes() {
	for _, p := range a.Registry.Processors() {
		if p.Bypassed() {
			log.Printf("processor %s: signature verification BYPASSED (no secret configured)", p.ID)
			continue
		}
		log.Printf("processor %s: signature verified (%s, header %s)", p.ID, p.Scheme, p.Header)
	}
	if unsigned := a.Registry.Unsigned(); len(unsigned) > 0 {
		log.Printf("WARNING: %d processor(s) accept unsigned webhooks: %v", len(unsigned), unsigned)
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("wire app: %v", err)
	}
	app.logTrustModes()

	if cfg.Postgres.URL != "" {
		pool, err := repo.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("init schema: %v", err)
		}
		if err := app.AddExporter("postgres", repo.NewPostgresTransactionExporter(pool), cfg.ExportBuffer); err != nil {
			log.Fatalf("postgres exporter: %v", err)
		}
	}
	if cfg.Kafka.Broker != "" {
		producer := kafka.NewTransactionProducer(cfg.Kafka.Broker, cfg.Kafka.Topic)
		defer producer.Close()
		if err := app.AddExporter("kafka", producer, cfg.ExportBuffer); err != nil {
			log.Fatalf("kafka exporter: %v", err)
		}
	}

	exportCtx, stopExport := context.WithCancel(context.Background())
	for _, d := range app.exporters {
		go d.Run(exportCtx)
	}

	if cfg.STAN.URL != "" {
		sub := &natsstan.Subscriber{
			ClusterID: cfg.STAN.ClusterID,
			ClientID:  cfg.STAN.ClientID,
			URL:       cfg.STAN.URL,
			Subject:   cfg.STAN.Subject,
			Durable:   "payagg-relay",
		}
		if err := sub.Subscribe(ctx, natsstan.RelayHandler(app.Ingest)); err != nil {
			log.Printf("stan subscribe: %v", err)
		} else {
			log.Printf("stan relay: subscribed to %s", cfg.STAN.Subject)
		}
	}

	if cfg.Stripe.SecretKey != "" {
		poller := stripepoll.NewPoller(cfg.Stripe.SecretKey, cfg.Stripe.PollInterval, app.Ingest.Record)
		go poller.Run(ctx)
	} else {
		log.Printf("stripe poll: disabled, STRIPE_SECRET_KEY not set")
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: app.Router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	app.Stream.Close()
	stopExport()
	for _, d := range app.exporters {
		d.Wait()
	}
}
