package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"rentledger/internal/audit"
	"rentledger/internal/auth"
	billingapp "rentledger/internal/billing/application"
	billingrepo "rentledger/internal/billing/infrastructure/postgres"
	"rentledger/internal/billing/infrastructure/tariff"
	billinghttp "rentledger/internal/billing/interfaces/http"
	"rentledger/internal/eventing"
	"rentledger/internal/eventing/eventbus"
	eventingrepo "rentledger/internal/eventing/infrastructure/postgres"
	leasingapp "rentledger/internal/leasing/application"
	leasingrepo "rentledger/internal/leasing/infrastructure/postgres"
	leasinghttp "rentledger/internal/leasing/interfaces/http"
	maintapp "rentledger/internal/maintenance/application"
	maintrepo "rentledger/internal/maintenance/infrastructure/postgres"
	mainthttp "rentledger/internal/maintenance/interfaces/http"
	"rentledger/internal/maintenance/notify"
	"rentledger/internal/observability/metrics"
	portfolioapp "rentledger/internal/portfolio/application"
	portfoliorepo "rentledger/internal/portfolio/infrastructure/postgres"
	portfoliohttp "rentledger/internal/portfolio/interfaces/http"
	reportingapp "rentledger/internal/reporting/application"
	reportingrepo "rentledger/internal/reporting/infrastructure/postgres"
	reportinghttp "rentledger/internal/reporting/interfaces/http"
	"rentledger/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		logger.Fatalf("migrations error: %v", err)
	}

	metrics.Init(db, logger)
	propertyChecker := auth.NewPropertyChecker(db)
	auditRepo := audit.NewRepository(db)

	baseBus := eventbus.NewInMemoryBus()
	registry := eventing.NewRegistry()
	registry.Register(leasingapp.LeaseStarted{})
	registry.Register(leasingapp.TenantOffboarded{})
	registry.Register(billingapp.PaymentVerified{})
	registry.Register(billingapp.InvoiceVoided{})
	registry.Register(billingapp.WaterRunCompleted{})
	registry.Register(maintapp.RequestFiled{})
	registry.Register(maintapp.RequestStatusChanged{})

	outboxStore := eventingrepo.NewOutboxStore(db)
	processedStore := eventingrepo.NewProcessedStore(db)
	dlqStore := eventingrepo.NewDLQStore(db)
	dispatcher := eventing.NewDispatcher(baseBus, outboxStore, registry, dlqStore)
	publisher := eventing.NewPublisher(outboxStore, dispatcher, "", baseBus)

	propertyRepo := portfoliorepo.NewPropertyRepository(db)
	unitRepo := portfoliorepo.NewUnitRepository(db)
	portfolioService, err := portfolioapp.NewPortfolioService(propertyRepo, unitRepo)
	if err != nil {
		logger.Fatalf("portfolio service error: %v", err)
	}
	portfolioHandler, err := portfoliohttp.NewHandler(portfolioService, auditRepo)
	if err != nil {
		logger.Fatalf("portfolio handler error: %v", err)
	}

	tenantRepo := leasingrepo.NewTenantRepository(db)
	leaseRepo := leasingrepo.NewLeaseRepository(db)
	offboardStore := leasingrepo.NewOffboardStore(db)
	leasingService, err := leasingapp.NewLeasingService(tenantRepo, leaseRepo, unitRepo, offboardStore, publisher, logger)
	if err != nil {
		logger.Fatalf("leasing service error: %v", err)
	}
	leasingHandler, err := leasinghttp.NewHandler(leasingService, auditRepo)
	if err != nil {
		logger.Fatalf("leasing handler error: %v", err)
	}

	invoiceRepo := billingrepo.NewInvoiceRepository(db)
	paymentRepo := billingrepo.NewPaymentRepository(db)
	meterRepo := billingrepo.NewMeterRepository(db)
	expenseRepo := billingrepo.NewExpenseRepository(db)

	invoiceService, err := billingapp.NewInvoiceService(invoiceRepo, publisher, logger)
	if err != nil {
		logger.Fatalf("invoice service error: %v", err)
	}
	paymentService, err := billingapp.NewPaymentService(paymentRepo, invoiceRepo, leaseRepo, publisher, logger)
	if err != nil {
		logger.Fatalf("payment service error: %v", err)
	}
	waterTariff, err := tariff.Load(cfg.WaterTariffPath)
	if err != nil {
		logger.Fatalf("water tariff error: %v", err)
	}
	waterService, err := billingapp.NewWaterService(meterRepo, invoiceRepo, waterTariff, publisher, logger)
	if err != nil {
		logger.Fatalf("water service error: %v", err)
	}
	expenseService, err := billingapp.NewExpenseService(expenseRepo, logger)
	if err != nil {
		logger.Fatalf("expense service error: %v", err)
	}
	billingHandler, err := billinghttp.NewHandler(invoiceService, paymentService, waterService, expenseService, leasingService, cfg.Currency, auditRepo)
	if err != nil {
		logger.Fatalf("billing handler error: %v", err)
	}

	var maintenanceChannel notify.Channel
	if cfg.MaintenanceWebhookURL != "" {
		channel, err := notify.NewWebhookChannel(cfg.MaintenanceWebhookURL)
		if err != nil {
			logger.Fatalf("maintenance webhook error: %v", err)
		}
		maintenanceChannel = channel
	}
	requestRepo := maintrepo.NewRequestRepository(db)
	maintenanceService, err := maintapp.NewService(requestRepo, maintenanceChannel, publisher, logger)
	if err != nil {
		logger.Fatalf("maintenance service error: %v", err)
	}
	maintenanceHandler, err := mainthttp.NewHandler(maintenanceService, propertyChecker, auditRepo)
	if err != nil {
		logger.Fatalf("maintenance handler error: %v", err)
	}

	snapshotSource := reportingrepo.NewSnapshotSource(db)
	dashboardService, err := reportingapp.NewDashboardService(snapshotSource, systemClock{}, cfg.ReportWindowMonths, logger)
	if err != nil {
		logger.Fatalf("dashboard service error: %v", err)
	}
	reportingHandler, err := reportinghttp.NewHandler(dashboardService, cfg.Currency, auditRepo)
	if err != nil {
		logger.Fatalf("reporting handler error: %v", err)
	}

	eventing.Subscribe(baseBus, eventbus.EventTypeOf[billingapp.PaymentVerified](), "billing.log", func(ctx context.Context, event any) error {
		evt, ok := event.(billingapp.PaymentVerified)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		metrics.ObserveConsumerLag("billing.log", time.Since(evt.OccurredAt))
		logger.Printf("payment verified: payment=%s invoice=%s amount=%.2f", evt.PaymentID, evt.InvoiceID, evt.Amount)
		return nil
	}, processedStore)
	eventing.Subscribe(baseBus, eventbus.EventTypeOf[maintapp.RequestFiled](), "maintenance.log", func(ctx context.Context, event any) error {
		evt, ok := event.(maintapp.RequestFiled)
		if !ok {
			return eventbus.ErrInvalidEventType
		}
		metrics.ObserveConsumerLag("maintenance.log", time.Since(evt.OccurredAt))
		logger.Printf("maintenance request filed: request=%s property=%s priority=%s", evt.RequestID, evt.PropertyID, evt.Priority)
		return nil
	}, processedStore)

	// Retry loop for outbox records whose inline dispatch failed.
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := dispatcher.Dispatch(context.Background(), 100); err != nil {
				logger.Printf("outbox dispatch error: %v", err)
			}
		}
	}()

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/properties", portfolioHandler)
	mux.Handle("/api/v1/properties/", portfolioHandler)
	mux.Handle("/api/v1/units/", portfolioHandler)
	mux.Handle("/api/v1/tenants", leasingHandler)
	mux.Handle("/api/v1/tenants/", leasingHandler)
	mux.Handle("/api/v1/leases", leasingHandler)
	mux.Handle("/api/v1/leases/", leasingHandler)
	mux.Handle("/api/v1/invoices", billingHandler)
	mux.Handle("/api/v1/invoices/", billingHandler)
	mux.Handle("/api/v1/payments", billingHandler)
	mux.Handle("/api/v1/payments/", billingHandler)
	mux.Handle("/api/v1/expenses", billingHandler)
	mux.Handle("/api/v1/water/readings", billingHandler)
	mux.Handle("/api/v1/water/runs", billingHandler)
	mux.Handle("/api/v1/maintenance", maintenanceHandler)
	mux.Handle("/api/v1/maintenance/", maintenanceHandler)
	mux.Handle("/api/v1/dashboard", reportingHandler)
	mux.Handle("/api/v1/reports/", reportingHandler)
	mux.Handle("/api/v1/exports/arrears.csv", reportingHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL           string
	HTTPAddr              string
	JWTSecret             string
	Currency              string
	ReportWindowMonths    int
	WaterTariffPath       string
	MaintenanceWebhookURL string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:           getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:              getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:             getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		Currency:              getenvDefault("CURRENCY", "KES"),
		ReportWindowMonths:    getenvIntDefault("REPORT_WINDOW_MONTHS", 12),
		WaterTariffPath:       getenvDefault("WATER_TARIFF_CONFIG", ""),
		MaintenanceWebhookURL: getenvDefault("MAINTENANCE_WEBHOOK_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
