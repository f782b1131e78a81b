package npm

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const tarballRoot = "package/"

// ErrTarballTooLarge 表示下载内容超过 MaxTarballSize。
var ErrTarballTooLarge = errors.New("tarball exceeds size limit")

// extractTarball 解压 npm tarball，只保留 package/ 目录下的普通文件。
func extractTarball(data []byte) (map[string][]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	files := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}
		if !hdr.FileInfo().Mode().IsRegular() {
			continue
		}
		rel, ok := strings.CutPrefix(hdr.Name, tarballRoot)
		if !ok || rel == "" {
			continue
		}
		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		files[rel] = body
	}
	return files, nil
}

// readLimited 读取完整响应体；limit > 0 时超过限制返回 ErrTarballTooLarge。
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, ErrTarballTooLarge
	}
	return body, nil
}
