package render

import "strings"

const defaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	"js":    "application/javascript; charset=utf-8",
	"mjs":   "application/javascript; charset=utf-8",
	"cjs":   "application/javascript; charset=utf-8",
	"json":  "application/json; charset=utf-8",
	"map":   "application/json; charset=utf-8",
	"css":   "text/css; charset=utf-8",
	"html":  "text/html; charset=utf-8",
	"htm":   "text/html; charset=utf-8",
	"xml":   "application/xml; charset=utf-8",
	"txt":   "text/plain; charset=utf-8",
	"md":    "text/plain; charset=utf-8",
	"ts":    "text/typescript; charset=utf-8",
	"tsx":   "text/typescript; charset=utf-8",
	"jsx":   "text/javascript; charset=utf-8",
	"svg":   "image/svg+xml",
	"png":   "image/png",
	"jpg":   "image/jpeg",
	"jpeg":  "image/jpeg",
	"gif":   "image/gif",
	"webp":  "image/webp",
	"woff":  "font/woff",
	"woff2": "font/woff2",
	"ttf":   "font/ttf",
	"eot":   "application/vnd.ms-fontobject",
	"wasm":  "application/wasm",
}

// ContentType 取路径最后一个 "." 之后的部分查表，未知扩展名返回 application/octet-stream。
// 匹配区分大小写。
func ContentType(path string) string {
	ext := path
	if dot := strings.LastIndexByte(path, '.'); dot >= 0 {
		ext = path[dot+1:]
	}
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return defaultContentType
}
