package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrovale/cobranca-bb-go/internal/config"
	"github.com/agrovale/cobranca-bb-go/internal/handler"
	"github.com/agrovale/cobranca-bb-go/internal/identifier"
	"github.com/agrovale/cobranca-bb-go/internal/infra/bbclient"
	"github.com/agrovale/cobranca-bb-go/internal/infra/memory"
	"github.com/agrovale/cobranca-bb-go/internal/infra/mtls"
	"github.com/agrovale/cobranca-bb-go/internal/infra/notify"
	"github.com/agrovale/cobranca-bb-go/internal/infra/observability"
	"github.com/agrovale/cobranca-bb-go/internal/infra/postgrest"
	"github.com/agrovale/cobranca-bb-go/internal/infra/resilience"
	"github.com/agrovale/cobranca-bb-go/internal/infra/schedule"
	"github.com/agrovale/cobranca-bb-go/internal/port"
	"github.com/agrovale/cobranca-bb-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuração inválida:", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("ambiente", cfg.Ambiente),
		zap.Bool("use_postgrest", cfg.UsePostgrest),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Int("pix_janela_max_dias", cfg.PixJanelaMax),
		zap.Int("cert_monitor_hour", cfg.MonitorHour),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "cobranca-bb")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	bankCB := resilience.NewCircuitBreaker("bb-apis")

	// --- Certificates / mTLS ---
	refs := make([]mtls.CertRef, 0, len(cfg.Certs))
	for _, c := range cfg.Certs {
		refs = append(refs, mtls.CertRef{
			Familia:  c.Familia,
			CertPath: c.CertPath,
			KeyPath:  c.KeyPath,
			CAPath:   c.CAPath,
		})
	}
	certStore := mtls.NewStore(refs)
	factory := mtls.NewFactory(certStore, cfg.HTTPTimeout)

	// --- Bank gateway: one mTLS client + token source per product family ---
	channelFor := func(familia string) bbclient.ChannelDeps {
		authClient, err := factory.AuthClient(familia)
		if err != nil {
			logger.Fatal("mTLS auth client", zap.String("familia", familia), zap.Error(err))
		}
		apiClient, err := factory.APIClient(familia, cfg.AppKey)
		if err != nil {
			logger.Fatal("mTLS api client", zap.String("familia", familia), zap.Error(err))
		}
		creds := cfg.Credentials[familia]
		tokens := bbclient.NewTokenSource(authClient, cfg.TokenURL, bbclient.Credentials{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Scope:        creds.Scope,
		}, metrics, logger)
		return bbclient.ChannelDeps{HTTP: apiClient, Tokens: tokens}
	}

	gateway := bbclient.NewClient(
		bbclient.Config{
			CobrancaBaseURL:   cfg.CobrancaBaseURL,
			PagamentosBaseURL: cfg.PagamentosBaseURL,
			PixBaseURL:        cfg.PixBaseURL,
			PixMaxWindow:      time.Duration(cfg.PixJanelaMax) * 24 * time.Hour,
		},
		channelFor(config.FamiliaCobranca),
		channelFor(config.FamiliaPagamentos),
		channelFor(config.FamiliaPix),
		bankCB,
		resilienceCfg,
		metrics,
		logger,
	)

	// --- Stores ---
	var (
		sequences port.SequenceStore
		boletos   port.BoletoStore
		audit     port.AuditStore
		customers port.CustomerRepository
		orders    port.OrderRepository
		accounts  port.AccountRepository
	)
	if cfg.UsePostgrest && cfg.PostgrestURL != "" {
		logger.Info("using PostgREST as data backend", zap.String("postgrest_url", cfg.PostgrestURL))
		pgClient := postgrest.NewClient(
			&http.Client{Timeout: cfg.HTTPTimeout},
			cfg.PostgrestURL,
			cfg.PostgrestKey,
			resilience.NewCircuitBreaker("postgrest"),
			resilienceCfg,
			logger,
		)
		sequences = postgrest.NewSequenceStore(pgClient)
		boletos = postgrest.NewBoletoStore(pgClient)
		audit = postgrest.NewAuditStore(pgClient)
		repos := postgrest.NewRepositories(pgClient)
		customers, orders, accounts = repos, repos, repos
	} else {
		logger.Warn("using in-memory stores: nothing survives a restart")
		sequences = memory.NewSequenceStore()
		boletos = memory.NewBoletoStore()
		audit = memory.NewAuditStore()
		repos := memory.NewRepositories()
		customers, orders, accounts = repos, repos, repos
	}

	// --- Identifier allocation ---
	generator := identifier.NewGenerator(sequences)
	allocator := identifier.NewAllocator(generator, !cfg.Producao())

	// --- Notifier ---
	notifier := notify.New(cfg.NotifyURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)

	// --- Services ---
	boletoSvc := service.NewBoletoService(boletos, audit, customers, orders, accounts, gateway, allocator, metrics, logger)
	pagamentoSvc := service.NewPagamentoService(gateway, audit, metrics, logger)
	pixSvc := service.NewPixService(gateway, logger)
	certSvc := service.NewCertificadoService(certStore, notifier, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Boletos:       boletoSvc,
		Pagamentos:    pagamentoSvc,
		Pix:           pixSvc,
		Certificados:  certSvc,
		Metrics:       metrics,
		Logger:        logger,
		JWTSecret:     cfg.JWTSecret,
		WebhookSecret: cfg.WebhookSecret,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Daily certificate expiry check.
	daily := schedule.NewDaily(cfg.MonitorHour, func(ctx context.Context) error {
		_, err := certSvc.RunCheck(ctx)
		return err
	}, logger)
	g.Go(func() error {
		err := daily.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Received-PIX poller.
	g.Go(func() error {
		err := pixSvc.Poll(gctx, 15*time.Minute)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
