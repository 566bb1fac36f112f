package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/neomorfeo/rentwise/internal/adapter/mail"
	"github.com/neomorfeo/rentwise/internal/adapter/memory"
	"github.com/neomorfeo/rentwise/internal/adapter/metrics"
	"github.com/neomorfeo/rentwise/internal/adapter/sqlite"
	"github.com/neomorfeo/rentwise/internal/app"
	"github.com/neomorfeo/rentwise/internal/config"
	"github.com/neomorfeo/rentwise/internal/domain"

	handler "github.com/neomorfeo/rentwise/internal/adapter/http"
)

const testSecret = "main-test-secret-0123456789"

// discardStdout silences the stdout exporter and JSON logs during a test.
func discardStdout(t *testing.T) {
	t.Helper()
	origStdout := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = origStdout
		devNull.Close()
	})
}

// isolateEnv keeps config files and variables of the developer machine out
// of run().
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{"RENTWISE_CONFIG", "OTEL_SERVICE_NAME", "OTEL_SERVICE_VERSION"} {
		t.Setenv(key, "")
	}
}

func TestBuildGateways(t *testing.T) {
	gateways := buildGateways([]config.GatewayConfig{
		{Method: string(domain.PaymentMethodOrangeMoney), BaseURL: "http://orange.test", APIKey: "key"},
	}, zerolog.Nop())

	if len(gateways) != 2 {
		t.Fatalf("got %d gateways, want 2", len(gateways))
	}
	for _, m := range []domain.PaymentMethod{domain.PaymentMethodCash, domain.PaymentMethodOrangeMoney} {
		if gateways[m] == nil {
			t.Errorf("no gateway registered for %s", m)
		}
	}
	if _, ok := gateways[domain.PaymentMethodCard]; ok {
		t.Error("card gateway registered without configuration")
	}
}

func TestOpenStorage_Memory(t *testing.T) {
	storage, closeFn, err := openStorage(context.Background(), config.StorageConfig{
		Driver:  config.StorageMemory,
		BaseURL: "/files",
	})
	if err != nil {
		t.Fatalf("openStorage: %v", err)
	}
	defer closeFn()

	if _, ok := storage.(*memory.Storage); !ok {
		t.Fatalf("storage = %T, want *memory.Storage", storage)
	}
}

func TestNewServices_InvalidContribution(t *testing.T) {
	store, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	_, err = newServices(deps{
		store:     store,
		views:     store.Listings(),
		storage:   memory.NewStorage("/files"),
		publisher: app.NewDirectPublisher(app.NewNotifier(mail.NewLogMailer(zerolog.Nop()), zerolog.Nop())),
		metrics:   metrics.New(),
		mutualAid: config.MutualAidConfig{MonthlyContribution: "abc", Currency: "XOF"},
		logger:    zerolog.Nop(),
	})
	if err == nil {
		t.Fatal("expected error for an invalid contribution amount, got nil")
	}
}

// TestSmoke wires the full stack like run() and verifies it responds.
func TestSmoke(t *testing.T) {
	store, err := sqlite.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	storage := memory.NewStorage("/files")
	m := metrics.New()
	svc, err := newServices(deps{
		store:     store,
		views:     store.Listings(),
		storage:   storage,
		gateways:  buildGateways(nil, zerolog.Nop()),
		publisher: app.NewDirectPublisher(app.NewNotifier(mail.NewLogMailer(zerolog.Nop()), zerolog.Nop())),
		metrics:   m,
		mutualAid: config.MutualAidConfig{MonthlyContribution: "2000", Currency: "XOF"},
		logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("newServices: %v", err)
	}

	auth := handler.NewAuthenticator(testSecret, "rentwise")
	srv := httptest.NewServer(handler.NewRouter(handler.RouterConfig{
		ServiceName: "rentwise",
		Version:     "test",
		Auth:        auth,
		Metrics:     m,
		Files:       storage,
		Logger:      zerolog.Nop(),
	}, svc))
	t.Cleanup(srv.Close)

	// An empty database lists no listings.
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/api/v1/listings", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/listings failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var listings []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings, want 0 (empty database)", len(listings))
	}

	// An owner can create a listing through the traced SQLite repositories.
	token, err := auth.Issue(domain.Actor{ID: "owner-1", Role: domain.RoleOwner}, time.Hour)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}
	body := `{
		"category": "apartment",
		"title": "Two-room flat near campus",
		"price": {"amount": "15000", "currency": "XOF"},
		"deposit": {"amount": "50000", "currency": "XOF"},
		"address": {"city": "Abidjan", "district": "Plateau", "country": "CI"},
		"capacity": 3
	}`
	req, err = http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL+"/api/v1/listings", strings.NewReader(body))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	created, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/v1/listings failed: %v", err)
	}
	defer created.Body.Close()

	if created.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", created.StatusCode, http.StatusOK)
	}
	var listing handler.ListingResponse
	if err := json.NewDecoder(created.Body).Decode(&listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if listing.OwnerID != "owner-1" || listing.Moderation != string(domain.ModerationPending) {
		t.Errorf("listing = %+v, want pending listing of owner-1", listing)
	}
}

// TestRun exercises the real run() function end-to-end: config, logging,
// OTel, River, HTTP server, and graceful shutdown.
func TestRun(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DATABASE_PATH", t.TempDir()+"/test-run.db")
	t.Setenv("PORT", "19876")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("OTEL_EXPORTER", "stdout")
	t.Setenv("OTEL_ENVIRONMENT", "test")
	discardStdout(t)

	errCh := make(chan error, 1)
	go func() { errCh <- run() }()

	// Wait for the HTTP server to become ready.
	serverURL := "http://localhost:19876"
	ready := false
	for i := 0; i < 50; i++ {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+"/healthz", nil)
		resp, reqErr := http.DefaultClient.Do(req)
		if reqErr == nil {
			resp.Body.Close()
			ready = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		t.Fatal("server did not start within 5 seconds")
	}

	for _, path := range []string{"/healthz", "/api/v1/listings", "/metrics"} {
		req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, serverURL+path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, resp.StatusCode, http.StatusOK)
		}
	}

	// Send SIGINT to trigger graceful shutdown.
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding process: %v", err)
	}
	if err := proc.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("sending SIGINT: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not exit within 10 seconds")
	}
}

// TestRun_InvalidDB verifies run() returns an error for an invalid database path.
func TestRun_InvalidDB(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DATABASE_PATH", "/nonexistent/path/db.sqlite")
	t.Setenv("PORT", "19877")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("OTEL_EXPORTER", "none")
	discardStdout(t)

	if err := run(); err == nil {
		t.Fatal("expected error for invalid database path, got nil")
	}
}

// TestRun_InvalidConfig verifies run() refuses to start without a JWT secret.
func TestRun_InvalidConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "19878")
	t.Setenv("OTEL_EXPORTER", "none")
	discardStdout(t)

	err := run()
	if err == nil {
		t.Fatal("expected error for missing JWT secret, got nil")
	}
	if !strings.Contains(err.Error(), "jwt") {
		t.Errorf("error = %v, want it to mention the jwt secret", err)
	}
}
