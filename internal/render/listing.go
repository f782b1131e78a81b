package render

import (
	"bytes"
	"html/template"
	"sort"
	"strings"

	"github.com/any-hub/any-cdn/internal/npm"
)

// ListingContentType 是目录列表的 Content-Type。
const ListingContentType = "text/html; charset=utf-8"

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Directory listing for {{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        h1 { color: #333; }
        ul { list-style: none; padding: 0; }
        li { margin: 5px 0; }
        a { text-decoration: none; color: #0066cc; }
        a:hover { text-decoration: underline; }
        .dir { font-weight: bold; }
        .file { color: #555; }
    </style>
</head>
<body>
    <h1>Directory listing for {{.Title}}</h1>
    <ul>
{{- if .Parent}}
        <li><a href="{{.Parent}}" class="dir">../</a></li>
{{- end}}
{{- range .Entries}}
        <li><a href="{{.Href}}" class="{{.Class}}">{{.Label}}</a></li>
{{- end}}
    </ul>
</body>
</html>
`))

// Entry 是目录下的一个直接子项。
type Entry struct {
	Name  string
	IsDir bool
}

type listingEntry struct {
	Href  string
	Class string
	Label string
}

type listingPage struct {
	Title   string
	Parent  string
	Entries []listingEntry
}

// Entries 返回 dir 下的直接子项（dir 为空表示根目录），已去重并按名称排序；
// 同名的文件排在目录之前。
func Entries(contents *npm.Contents, dir string) []Entry {
	dir = strings.Trim(dir, "/")
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	seen := make(map[Entry]struct{})
	for p := range contents.Files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok || rest == "" {
			continue
		}
		if slash := strings.IndexByte(rest, '/'); slash >= 0 {
			seen[Entry{Name: rest[:slash], IsDir: true}] = struct{}{}
		} else {
			seen[Entry{Name: rest}] = struct{}{}
		}
	}

	entries := make([]Entry, 0, len(seen))
	for e := range seen {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return !entries[i].IsDir && entries[j].IsDir
	})
	return entries
}

// Listing 生成 dir 的 HTML 目录列表，链接形如 /<name>@<version>/<dir>/<entry>。
func Listing(contents *npm.Contents, dir, name, version string) (string, error) {
	dir = strings.Trim(dir, "/")
	base := "/" + name + "@" + version + "/"

	page := listingPage{Title: name + "@" + version + "/" + dir}
	if dir != "" {
		parent := ""
		if slash := strings.LastIndexByte(dir, '/'); slash >= 0 {
			parent = dir[:slash] + "/"
		}
		page.Parent = base + parent
	}

	linkBase := base
	if dir != "" {
		linkBase = base + dir + "/"
	}
	for _, e := range Entries(contents, dir) {
		item := listingEntry{Href: linkBase + e.Name, Class: "file", Label: e.Name}
		if e.IsDir {
			item.Href += "/"
			item.Class = "dir"
			item.Label += "/"
		}
		page.Entries = append(page.Entries, item)
	}

	buf := &bytes.Buffer{}
	if err := listingTemplate.Execute(buf, page); err != nil {
		return "", npm.Internal(err, "render listing for %s", page.Title)
	}
	return buf.String(), nil
}
