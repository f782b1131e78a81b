package server

import (
	"net"
	"net/http"
	"time"

	"github.com/any-hub/any-cdn/internal/config"
)

// registryTransport 的连接池按少量 registry 主机调优，元数据与 tarball 通常只涉及一两个域名。
var registryTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          64,
	MaxIdleConnsPerHost:   32,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// NewUpstreamClient 返回访问 registry 与 tarball 的共享 http.Client。
// UpstreamTimeout 为 0 时不设整体超时，仅依赖 transport 的连接/握手超时与请求 context；
// 大于 0 时同时作为等待响应头的上限。
func NewUpstreamClient(cfg *config.Config) *http.Client {
	transport := registryTransport.Clone()
	client := &http.Client{Transport: transport}
	if cfg == nil {
		return client
	}
	if timeout := cfg.Global.UpstreamTimeout.DurationValue(); timeout > 0 {
		client.Timeout = timeout
		transport.ResponseHeaderTimeout = timeout
	}
	return client
}
