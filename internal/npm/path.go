package npm

import "strings"

// Target 描述一次 CDN 请求指向的包、版本与文件。
// Version 为空表示未指定；HasFile 为 true 而 File 为空表示包根目录。
type Target struct {
	Name    string
	Version string
	File    string
	HasFile bool
}

// Spec 返回用于日志的版本说明符，未指定时为 latest。
func (t Target) Spec() string {
	if t.Version == "" {
		return "latest"
	}
	return t.Version
}

// ParsePath 把 URL 路径拆成包名、可选版本与可选文件路径：
//
//	react                    -> react
//	react@18/index.js        -> react, 18, index.js
//	@vue/shared@3.3.4/dist/  -> @vue/shared, 3.3.4, dist/
//	@vue/shared/package.json -> @vue/shared, -, package.json
func ParsePath(raw string) (Target, error) {
	p := strings.TrimLeft(raw, "/")
	if p == "" {
		return Target{}, InvalidRequest("empty path")
	}

	var t Target
	switch {
	case strings.HasPrefix(p, "@"):
		t = parseScoped(p)
	case strings.Contains(p, "@"):
		at := strings.IndexByte(p, '@')
		t = withVersion(p[:at], p[at+1:])
	default:
		t = splitFile(p)
	}

	if strings.Trim(t.Name, "@/") == "" {
		return Target{}, InvalidRequest("invalid package name in path: %s", raw)
	}
	return t, nil
}

func parseScoped(p string) Target {
	if at := strings.IndexByte(p[1:], '@'); at >= 0 {
		at++
		return withVersion(p[:at], p[at+1:])
	}
	slash := strings.IndexByte(p, '/')
	if slash < 0 {
		return Target{Name: p}
	}
	second := strings.IndexByte(p[slash+1:], '/')
	if second < 0 {
		return Target{Name: p}
	}
	end := slash + 1 + second
	return Target{Name: p[:end], File: p[end+1:], HasFile: true}
}

// withVersion 处理 name@rest 形式，rest 在第一个 / 处拆为版本与文件。
func withVersion(name, rest string) Target {
	t := Target{Name: name}
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		t.Version = rest[:slash]
		t.File = rest[slash+1:]
		t.HasFile = true
	} else {
		t.Version = rest
	}
	return t
}

func splitFile(p string) Target {
	if slash := strings.IndexByte(p, '/'); slash >= 0 {
		return Target{Name: p[:slash], File: p[slash+1:], HasFile: true}
	}
	return Target{Name: p}
}
