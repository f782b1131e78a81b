// Package npmtest 提供测试用的内存 npm registry。
package npmtest

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Registry 以 httptest.Server 模拟 registry 的元数据与 tarball 接口，并记录访问次数。
type Registry struct {
	*httptest.Server

	mu        sync.Mutex
	metadata  map[string]map[string]any
	tarballs  map[string][]byte
	hits      map[string]int
	userAgent string
	delay     time.Duration
}

// NewRegistry 启动 registry，测试结束时自动关闭。
func NewRegistry(t testing.TB) *Registry {
	t.Helper()
	r := &Registry{
		metadata: make(map[string]map[string]any),
		tarballs: make(map[string][]byte),
		hits:     make(map[string]int),
	}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.Close)
	return r
}

// Publish 注册一个包；versions 为 版本 → (相对路径 → 内容)，文件会被放在 package/ 下打包。
func (r *Registry) Publish(name string, tags map[string]string, versions map[string]map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make(map[string]any, len(versions))
	for version, files := range versions {
		tarballPath := TarballPath(name, version)
		r.tarballs[tarballPath] = Tarball(files)
		records[version] = map[string]any{
			"name":    name,
			"version": version,
			"dist":    map[string]any{"tarball": r.URL + tarballPath},
		}
	}
	distTags := make(map[string]any, len(tags))
	for tag, version := range tags {
		distTags[tag] = version
	}
	r.metadata[name] = map[string]any{
		"name":      name,
		"dist-tags": distTags,
		"versions":  records,
	}
}

// SetMetadata 直接指定元数据文档，用于构造异常形状。
func (r *Registry) SetMetadata(name string, doc map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[name] = doc
}

// SetTarball 覆盖某个版本的 tarball 原始字节。
func (r *Registry) SetTarball(name, version string, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tarballs[TarballPath(name, version)] = raw
}

// SetDelay 让每个响应延迟返回，用于并发测试。
func (r *Registry) SetDelay(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delay = d
}

// Hits 返回某个路径被请求的次数。
func (r *Registry) Hits(p string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[p]
}

// UserAgent 返回最近一次请求的 User-Agent。
func (r *Registry) UserAgent() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userAgent
}

func (r *Registry) serve(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	p := req.URL.Path
	r.hits[p]++
	r.userAgent = req.Header.Get("User-Agent")
	delay := r.delay
	raw, isTarball := r.tarballs[p]
	doc, isMetadata := r.metadata[strings.TrimPrefix(p, "/")]
	r.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	switch {
	case isTarball:
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(raw)
	case isMetadata:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	default:
		http.Error(w, `{"error":"Not found"}`, http.StatusNotFound)
	}
}

// TarballPath 返回与 npm 相同风格的 tarball 路径：/<name>/-/<basename>-<version>.tgz。
func TarballPath(name, version string) string {
	return "/" + name + "/-/" + path.Base(name) + "-" + version + ".tgz"
}

// Tarball 把文件打包为 gzip 压缩的 tar，所有条目位于 package/ 目录下。
func Tarball(files map[string]string) []byte {
	entries := make(map[string]string, len(files))
	for name, body := range files {
		entries["package/"+name] = body
	}
	return RawTarball(entries)
}

// RawTarball 按原样写入条目名；以 / 结尾的名字写成目录。
func RawTarball(entries map[string]string) []byte {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	tw := tar.NewWriter(gz)
	for _, name := range names {
		body := entries[name]
		if strings.HasSuffix(name, "/") {
			_ = tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeDir, Mode: 0o755})
			continue
		}
		_ = tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(body)),
		})
		_, _ = tw.Write([]byte(body))
	}
	_ = tw.Close()
	_ = gz.Close()
	return buf.Bytes()
}
