package proxy

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/any-cdn/internal/logging"
	"github.com/any-hub/any-cdn/internal/npm"
	"github.com/any-hub/any-cdn/internal/render"
	"github.com/any-hub/any-cdn/internal/server"
)

// HeaderResolvedVersion 携带本次请求最终解析出的版本号。
const HeaderResolvedVersion = "X-Any-Cdn-Version"

// Handler 负责 “解析路径 → 元数据 → 版本 → 包内容 → 文件/目录” 的完整流程，
// 所有回源与缓存都经由 npm.Client。
type Handler struct {
	client *npm.Client
	logger *logrus.Logger
}

// NewHandler constructs a handler with the shared npm client and logger.
func NewHandler(client *npm.Client, logger *logrus.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// response 是流水线的最终产物。
type response struct {
	body        []byte
	contentType string
	version     string
	file        string
}

func (h *Handler) Handle(c fiber.Ctx) error {
	started := time.Now()
	requestID := server.RequestID(c)

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	target, res, err := h.serve(ctx, c.Path())
	if err != nil {
		h.logResult(target, requestID, res, started, err)
		return h.writeError(c, err)
	}

	c.Set(HeaderResolvedVersion, res.version)
	c.Set(fiber.HeaderContentType, res.contentType)
	h.logResult(target, requestID, res, started, nil)
	return c.Status(fiber.StatusOK).Send(res.body)
}

func (h *Handler) serve(ctx context.Context, rawPath string) (npm.Target, response, error) {
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return npm.Target{}, response{}, npm.InvalidRequest("malformed path encoding: %s", rawPath)
	}
	target, err := npm.ParsePath(decoded)
	if err != nil {
		return target, response{}, err
	}

	meta, err := h.client.Metadata(ctx, target.Name)
	if err != nil {
		return target, response{}, err
	}
	version, err := npm.ResolveVersion(meta, target.Version)
	if err != nil {
		return target, response{}, err
	}
	res := response{version: version}

	contents, err := h.client.Package(ctx, target.Name, version, meta)
	if err != nil {
		return target, res, err
	}

	switch {
	case !target.HasFile:
		entry, err := npm.ResolveEntry(contents)
		if err != nil {
			return target, res, err
		}
		res, err = fileResponse(contents, entry, version)
		return target, res, err
	case target.File == "" || strings.HasSuffix(target.File, "/"):
		dir := strings.TrimRight(target.File, "/")
		html, err := render.Listing(contents, dir, target.Name, version)
		if err != nil {
			return target, res, err
		}
		res.body = []byte(html)
		res.contentType = render.ListingContentType
		res.file = target.File
		return target, res, nil
	default:
		res, err = fileResponse(contents, target.File, version)
		return target, res, err
	}
}

func fileResponse(contents *npm.Contents, path, version string) (response, error) {
	f, err := render.FileFrom(contents, path)
	if err != nil {
		return response{version: version, file: path}, err
	}
	return response{body: f.Body, contentType: f.ContentType, version: version, file: path}, nil
}

// statusFor 把错误类别映射为 HTTP 状态码。
func statusFor(kind npm.Kind) int {
	switch kind {
	case npm.KindNotFound:
		return fiber.StatusNotFound
	case npm.KindInvalidRequest:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *Handler) writeError(c fiber.Ctx, err error) error {
	kind := npm.KindOf(err)
	return c.Status(statusFor(kind)).JSON(fiber.Map{
		"error":   kind.String(),
		"message": err.Error(),
	})
}

func (h *Handler) logResult(target npm.Target, requestID string, res response, started time.Time, err error) {
	fields := logging.RequestFields(target.Name, target.Spec(), res.file, res.version)
	fields["action"] = "serve"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if err != nil {
		kind := npm.KindOf(err)
		fields["status"] = statusFor(kind)
		fields["error"] = err.Error()
		if kind == npm.KindInternal {
			h.logger.WithFields(fields).Error("serve_failed")
		} else {
			h.logger.WithFields(fields).Warn("serve_failed")
		}
		return
	}
	fields["status"] = fiber.StatusOK
	fields["bytes"] = len(res.body)
	h.logger.WithFields(fields).Info("serve_complete")
}
