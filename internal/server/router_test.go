package server

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

func TestRouterDelegatesPackagePaths(t *testing.T) {
	app, rec := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/react@18/index.js", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204 status, got %d", resp.StatusCode)
	}
	if rec.path != "/react@18/index.js" {
		t.Fatalf("unexpected proxied path: %s", rec.path)
	}
	if rec.requestID == "" || resp.Header.Get("X-Request-ID") != rec.requestID {
		t.Fatalf("request id should be shared between header and handler")
	}
}

func TestRouterServesIndexPage(t *testing.T) {
	app, rec := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(string(body), "any-cdn") {
		t.Fatalf("unexpected index response: %d %s", resp.StatusCode, string(body))
	}
	if !strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "text/html") {
		t.Fatalf("index should be html, got %s", resp.Header.Get(fiber.HeaderContentType))
	}
	if rec.path != "" {
		t.Fatalf("index must not reach proxy handler")
	}
}

func TestRouterSkipsDiagnosticsPaths(t *testing.T) {
	app, rec := newTestApp(t)
	app.Get("/-/ping", func(c fiber.Ctx) error {
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/-/ping", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Fatalf("diagnostics route not reached: %s", string(body))
	}
	if rec.path != "" {
		t.Fatalf("diagnostics path must not reach proxy handler")
	}
}

func TestRouterRecoversFromPanics(t *testing.T) {
	app, err := NewApp(AppOptions{
		Logger: logrus.New(),
		Proxy:  ProxyHandlerFunc(func(fiber.Ctx) error {
			panic("boom")
		}),
	})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/left-pad", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", resp.StatusCode)
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	if _, err := NewApp(AppOptions{Proxy: ProxyHandlerFunc(func(fiber.Ctx) error { return nil })}); err == nil {
		t.Fatalf("expected error when logger is missing")
	}
	if _, err := NewApp(AppOptions{Logger: logrus.New()}); err == nil {
		t.Fatalf("expected error when proxy is missing")
	}
}

type proxyRecorder struct {
	path      string
	requestID string
}

func newTestApp(t *testing.T) (*fiber.App, *proxyRecorder) {
	t.Helper()

	rec := &proxyRecorder{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app, err := NewApp(AppOptions{
		Logger: logger,
		Proxy:  ProxyHandlerFunc(func(c fiber.Ctx) error {
			rec.path = c.Path()
			rec.requestID = RequestID(c)
			return c.SendStatus(fiber.StatusNoContent)
		}),
	})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, rec
}
