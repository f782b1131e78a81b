package npm

import "strings"

// ResolveEntry 依次检查 jsdelivr、exports["."]、main 字段，最后回退到 index.js。
func ResolveEntry(c *Contents) (string, error) {
	m := c.Manifest

	if s, ok := m.String("jsdelivr"); ok {
		return trimDotSlash(s), nil
	}

	if exports, ok := m.Object("exports"); ok {
		if dot, ok := exports.Object("."); ok {
			if s, ok := dot.String("default"); ok {
				return trimDotSlash(s), nil
			}
		} else if s, ok := exports.String("."); ok {
			return trimDotSlash(s), nil
		}
	}

	if s, ok := m.String("main"); ok {
		return trimDotSlash(s), nil
	}

	if _, ok := c.Files["index.js"]; ok {
		return "index.js", nil
	}
	return "", NotFound("no entry file found in package.json")
}

// trimDotSlash 去掉所有前导 "./"。
func trimDotSlash(s string) string {
	for strings.HasPrefix(s, "./") {
		s = s[2:]
	}
	return s
}
