package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProxyHandler describes the component serving package paths. It allows
// injecting fake handlers during tests.
type ProxyHandler interface {
	Handle(fiber.Ctx) error
}

// ProxyHandlerFunc adapts a function to the ProxyHandler interface.
type ProxyHandlerFunc func(fiber.Ctx) error

// Handle makes ProxyHandlerFunc satisfy ProxyHandler.
func (f ProxyHandlerFunc) Handle(c fiber.Ctx) error {
	return f(c)
}

// AppOptions controls the Fiber application.
type AppOptions struct {
	Logger *logrus.Logger
	Proxy  ProxyHandler
}

const contextKeyRequestID = "_anycdn_request_id"

// NewApp builds a Fiber application with request-id middleware, the index
// page and a catch-all package route. Diagnostics routes under /-/ are
// registered by the caller after NewApp returns.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Proxy == nil {
		return nil, errors.New("proxy handler is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		AppName:       "any-cdn",
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	app.Get("/", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(indexPage)
	})

	app.Get("/*", func(c fiber.Ctx) error {
		if isDiagnosticsPath(c.Path()) {
			return c.Next()
		}
		return opts.Proxy.Handle(c)
	})

	return app, nil
}

// requestContextMiddleware 为每个请求生成 ID，写入 Locals 与 X-Request-ID 响应头。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

// isDiagnosticsPath 判断是否为 /-/ 前缀的诊断路径；npm 包名不会以 "-" 开头。
func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>any-cdn</title>
</head>
<body>
    <h1>any-cdn</h1>
    <p>A minimal jsDelivr-like CDN service for npm packages.</p>
    <h2>Usage:</h2>
    <ul>
        <li><code>/package</code> - Get the entry file of the latest version</li>
        <li><code>/package@version</code> - Get the entry file of a specific version, tag or range</li>
        <li><code>/package@version/</code> - List directory contents</li>
        <li><code>/package@version/path/to/file.js</code> - Get a specific file</li>
        <li><code>/-/cache</code> - Cache statistics</li>
    </ul>
    <h2>Examples:</h2>
    <ul>
        <li><a href="/react">/react</a></li>
        <li><a href="/vue@3.3.4/">/vue@3.3.4/</a></li>
        <li><a href="/lodash@4.17.21/lodash.js">/lodash@4.17.21/lodash.js</a></li>
    </ul>
</body>
</html>
`
