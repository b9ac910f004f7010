package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	auditsvc "github.com/danielcastano/abasto-backend/internal/audit"
	authsvc "github.com/danielcastano/abasto-backend/internal/auth"
	catalogsvc "github.com/danielcastano/abasto-backend/internal/catalog"
	productsvc "github.com/danielcastano/abasto-backend/internal/products"
	purchasesvc "github.com/danielcastano/abasto-backend/internal/purchases"
	salesvc "github.com/danielcastano/abasto-backend/internal/sales"
	pkgauth "github.com/danielcastano/abasto-backend/pkg/auth"
	"github.com/danielcastano/abasto-backend/pkg/config"
	"github.com/danielcastano/abasto-backend/pkg/enums"
	"github.com/danielcastano/abasto-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, authsvc.LoginInput) (*authsvc.LoginResponse, error) {
	return &authsvc.LoginResponse{AccessToken: "token", TokenType: "Bearer"}, nil
}

type stubProductService struct{}

func (stubProductService) Get(context.Context, uuid.UUID) (*productsvc.Response, error) {
	return &productsvc.Response{}, nil
}

func (stubProductService) List(context.Context, productsvc.ListFilter) (*productsvc.ListResponse, error) {
	return &productsvc.ListResponse{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) CreateBrand(context.Context, catalogsvc.CreateInput) (*catalogsvc.Entry, error) {
	return &catalogsvc.Entry{}, nil
}

func (stubCatalogService) ListBrands(context.Context) ([]catalogsvc.Entry, error) {
	return nil, nil
}

func (stubCatalogService) CreateProductLine(context.Context, catalogsvc.CreateInput) (*catalogsvc.Entry, error) {
	return &catalogsvc.Entry{}, nil
}

func (stubCatalogService) ListProductLines(context.Context) ([]catalogsvc.Entry, error) {
	return nil, nil
}

type stubAuditService struct{}

func (stubAuditService) Record(context.Context, uuid.UUID, enums.AuditEventType, string) {}

func (stubAuditService) List(context.Context, auditsvc.ListFilter) (*auditsvc.ListResponse, error) {
	return &auditsvc.ListResponse{}, nil
}

type stubPurchaseService struct{}

func (stubPurchaseService) Create(context.Context, purchasesvc.CreateInput) (*purchasesvc.Response, error) {
	return &purchasesvc.Response{}, nil
}

func (stubPurchaseService) Get(context.Context, uuid.UUID) (*purchasesvc.Response, error) {
	return &purchasesvc.Response{}, nil
}

func (stubPurchaseService) List(context.Context, purchasesvc.ListFilter) (*purchasesvc.ListResponse, error) {
	return &purchasesvc.ListResponse{}, nil
}

func (stubPurchaseService) Update(context.Context, uuid.UUID, purchasesvc.UpdateInput) (*purchasesvc.Response, error) {
	return &purchasesvc.Response{}, nil
}

type stubSaleService struct{}

func (stubSaleService) Create(context.Context, salesvc.CreateInput) (*salesvc.Response, error) {
	return &salesvc.Response{}, nil
}

func (stubSaleService) Get(context.Context, uuid.UUID) (*salesvc.Response, error) {
	return &salesvc.Response{}, nil
}

func (stubSaleService) List(context.Context, salesvc.ListFilter) (*salesvc.ListResponse, error) {
	return &salesvc.ListResponse{}, nil
}

func (stubSaleService) Update(context.Context, uuid.UUID, salesvc.UpdateInput) (*salesvc.Response, error) {
	return &salesvc.Response{}, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "test-secret", Issuer: "abasto-test", ExpirationMinutes: 15}

	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})

	return NewRouter(
		cfg,
		logg,
		nil,
		stubPinger{},
		nil,
		stubAuthService{},
		stubProductService{},
		stubCatalogService{},
		stubAuditService{},
		stubPurchaseService{},
		stubSaleService{},
	)
}

func bearerFor(t *testing.T, cfg config.JWTConfig, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "ana@example.com",
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestRouterHealthLive(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Abasto-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestRouterLoginIsPublic(t *testing.T) {
	router := testRouter(t)
	body := strings.NewReader(`{"email":"ana@example.com","password":"secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterRejectsMissingToken(t *testing.T) {
	router := testRouter(t)
	for _, path := range []string{"/api/v1/purchases", "/api/v1/sales", "/api/v1/products", "/api/v1/audit"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, rec.Code)
		}
	}
}

func TestRouterAllowsAuthenticatedReads(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "abasto-test", ExpirationMinutes: 15}
	router := testRouter(t)

	for _, path := range []string{"/api/v1/purchases", "/api/v1/sales", "/api/v1/products", "/api/v1/catalog/brands"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", bearerFor(t, cfg, enums.UserRoleEmployee))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d: %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestRouterAuditRequiresAdmin(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "abasto-test", ExpirationMinutes: 15}
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	req.Header.Set("Authorization", bearerFor(t, cfg, enums.UserRoleEmployee))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	req.Header.Set("Authorization", bearerFor(t, cfg, enums.UserRoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterCatalogWritesRequireAdmin(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "abasto-test", ExpirationMinutes: 15}
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/brands", strings.NewReader(`{"name":"Acme"}`))
	req.Header.Set("Authorization", bearerFor(t, cfg, enums.UserRoleEmployee))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee brand create, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/catalog/brands", strings.NewReader(`{"name":"Acme"}`))
	req.Header.Set("Authorization", bearerFor(t, cfg, enums.UserRoleAdmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for admin brand create, got %d: %s", rec.Code, rec.Body.String())
	}
}
