// Package render 把解包后的内容转换为 HTTP 响应体：单个文件或 HTML 目录列表。
package render
