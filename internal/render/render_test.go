package render

import (
	"reflect"
	"strings"
	"testing"

	"github.com/any-hub/any-cdn/internal/npm"
)

func sampleContents() *npm.Contents {
	return &npm.Contents{
		Name:    "demo",
		Version: "1.0.0",
		Files: map[string][]byte{
			"package.json":     []byte(`{"name":"demo"}`),
			"index.js":         []byte("module.exports = 1"),
			"lib/a.js":         []byte("a"),
			"lib/b.js":         []byte("b"),
			"lib/deep/c.js":    []byte("c"),
			"dist/demo.min.js": []byte("d"),
			"README.md":        []byte("# demo"),
		},
	}
}

func TestFileFrom(t *testing.T) {
	f, err := FileFrom(sampleContents(), "lib/a.js")
	if err != nil {
		t.Fatalf("读取文件失败: %v", err)
	}
	if string(f.Body) != "a" || f.ContentType != "application/javascript; charset=utf-8" {
		t.Fatalf("文件响应不正确: %+v", f)
	}
}

func TestFileFromMissing(t *testing.T) {
	_, err := FileFrom(sampleContents(), "lib/missing.js")
	if npm.KindOf(err) != npm.KindNotFound {
		t.Fatalf("期望 NotFound，得到 %v", err)
	}
	if !strings.Contains(err.Error(), "lib/missing.js") {
		t.Fatalf("错误信息应包含文件路径: %v", err)
	}
}

func TestEntriesRoot(t *testing.T) {
	got := Entries(sampleContents(), "")
	want := []Entry{
		{Name: "README.md"},
		{Name: "dist", IsDir: true},
		{Name: "index.js"},
		{Name: "lib", IsDir: true},
		{Name: "package.json"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("根目录列表不正确:\n期望 %+v\n得到 %+v", want, got)
	}
}

func TestEntriesSubdirectoryDeduplicates(t *testing.T) {
	got := Entries(sampleContents(), "lib")
	want := []Entry{
		{Name: "a.js"},
		{Name: "b.js"},
		{Name: "deep", IsDir: true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lib 目录列表不正确: %+v", got)
	}
}

func TestEntriesUnknownDirectoryIsEmpty(t *testing.T) {
	if got := Entries(sampleContents(), "nope"); len(got) != 0 {
		t.Fatalf("不存在的目录应为空列表: %+v", got)
	}
}

func TestListingRootHasNoParent(t *testing.T) {
	html, err := Listing(sampleContents(), "", "demo", "1.0.0")
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if strings.Contains(html, "../") {
		t.Fatalf("根目录不应包含父目录链接")
	}
	if !strings.Contains(html, `<a href="/demo@1.0.0/lib/" class="dir">lib/</a>`) {
		t.Fatalf("缺少目录链接:\n%s", html)
	}
	if !strings.Contains(html, `<a href="/demo@1.0.0/index.js" class="file">index.js</a>`) {
		t.Fatalf("缺少文件链接:\n%s", html)
	}
	if !strings.Contains(html, "Directory listing for demo@1.0.0/") {
		t.Fatalf("标题不正确:\n%s", html)
	}
}

func TestListingNestedParentLinks(t *testing.T) {
	html, err := Listing(sampleContents(), "lib/deep", "demo", "1.0.0")
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if !strings.Contains(html, `<a href="/demo@1.0.0/lib/" class="dir">../</a>`) {
		t.Fatalf("父目录链接不正确:\n%s", html)
	}
	if !strings.Contains(html, `<a href="/demo@1.0.0/lib/deep/c.js" class="file">c.js</a>`) {
		t.Fatalf("文件链接不正确:\n%s", html)
	}

	top, _ := Listing(sampleContents(), "lib", "demo", "1.0.0")
	if !strings.Contains(top, `<a href="/demo@1.0.0/" class="dir">../</a>`) {
		t.Fatalf("一级目录的父链接应指向包根目录:\n%s", top)
	}
}

func TestListingIsIdempotent(t *testing.T) {
	first, _ := Listing(sampleContents(), "lib", "demo", "1.0.0")
	second, _ := Listing(sampleContents(), "lib/", "demo", "1.0.0")
	if first != second {
		t.Fatalf("相同输入应得到相同输出")
	}
}

func TestListingEscapesNames(t *testing.T) {
	c := &npm.Contents{Files: map[string][]byte{"<script>.js": []byte("x")}}
	html, err := Listing(c, "", "@scope/pkg", "1.0.0")
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	if strings.Contains(html, "<script>.js") {
		t.Fatalf("文件名应被转义:\n%s", html)
	}
	if !strings.Contains(html, "&lt;script&gt;.js") {
		t.Fatalf("缺少转义后的文件名:\n%s", html)
	}
}
