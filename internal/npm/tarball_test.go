package npm

import (
	"archive/tar"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/any-hub/any-cdn/internal/npm/npmtest"
)

func TestExtractTarballKeepsRegularFilesUnderPackage(t *testing.T) {
	raw := npmtest.RawTarball(map[string]string{
		"package/":             "",
		"package/package.json": `{"name":"x"}`,
		"package/lib/":         "",
		"package/lib/a.js":     "a",
		"other/readme.md":      "ignored",
		"pax_global_header":    "ignored",
	})

	files, err := extractTarball(raw)
	if err != nil {
		t.Fatalf("解压失败: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("应只保留 2 个文件，得到 %v", keysOf(files))
	}
	if string(files["lib/a.js"]) != "a" {
		t.Fatalf("lib/a.js 内容不正确")
	}
	for name := range files {
		if strings.HasPrefix(name, "package/") {
			t.Fatalf("文件键不应带 package/ 前缀: %s", name)
		}
	}
}

func TestExtractTarballSkipsSymlinks(t *testing.T) {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	tw := tar.NewWriter(gz)
	_ = tw.WriteHeader(&tar.Header{Name: "package/link.js", Typeflag: tar.TypeSymlink, Linkname: "/etc/passwd"})
	_ = tw.WriteHeader(&tar.Header{Name: "package/package.json", Typeflag: tar.TypeReg, Mode: 0o644, Size: 2})
	_, _ = tw.Write([]byte("{}"))
	_ = tw.Close()
	_ = gz.Close()

	files, err := extractTarball(buf.Bytes())
	if err != nil {
		t.Fatalf("解压失败: %v", err)
	}
	if _, ok := files["link.js"]; ok {
		t.Fatalf("符号链接不应被保留")
	}
	if _, ok := files["package.json"]; !ok {
		t.Fatalf("package.json 应被保留")
	}
}

func TestExtractTarballRejectsGarbage(t *testing.T) {
	if _, err := extractTarball([]byte("not a gzip stream")); err == nil {
		t.Fatalf("非 gzip 数据应返回错误")
	}
}

func TestReadLimited(t *testing.T) {
	if _, err := readLimited(strings.NewReader("12345"), 4); !errors.Is(err, ErrTarballTooLarge) {
		t.Fatalf("超出限制应返回 ErrTarballTooLarge，得到 %v", err)
	}
	body, err := readLimited(strings.NewReader("1234"), 4)
	if err != nil || string(body) != "1234" {
		t.Fatalf("恰好等于限制时应成功: %q %v", body, err)
	}
	if body, err := readLimited(strings.NewReader("123456789"), 0); err != nil || len(body) != 9 {
		t.Fatalf("limit 为 0 时不限制")
	}
}

func keysOf(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
