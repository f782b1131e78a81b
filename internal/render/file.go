package render

import "github.com/any-hub/any-cdn/internal/npm"

// File 是单个文件响应。
type File struct {
	Path        string
	Body        []byte
	ContentType string
}

// FileFrom 从包内容中取出 path 对应的文件。
func FileFrom(contents *npm.Contents, path string) (File, error) {
	body, ok := contents.File(path)
	if !ok {
		return File{}, npm.NotFound("file '%s' not found", path)
	}
	return File{Path: path, Body: body, ContentType: ContentType(path)}, nil
}
