package npm

import "sort"

// Document 是 registry JSON / package.json 的通用表示，嵌套对象为 map[string]any。
type Document map[string]any

// Object 返回 key 对应的嵌套对象；缺失或类型不符时 ok=false。
func (d Document) Object(key string) (Document, bool) {
	if d == nil {
		return nil, false
	}
	return asDocument(d[key])
}

// String 返回 key 对应的字符串值。
func (d Document) String(key string) (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d[key].(string)
	return s, ok
}

func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// Keys 返回排序后的键列表。
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asDocument(v any) (Document, bool) {
	switch typed := v.(type) {
	case Document:
		return typed, true
	case map[string]any:
		return Document(typed), true
	default:
		return nil, false
	}
}

// Metadata 是某个包在 registry 上的完整元数据，获取后只读共享。
type Metadata struct {
	Name string   `msgpack:"name"`
	Doc  Document `msgpack:"doc"`
}

// DistTag 查询 dist-tags 中的标签，值必须是字符串。
func (m *Metadata) DistTag(tag string) (string, bool) {
	tags, ok := m.Doc.Object("dist-tags")
	if !ok {
		return "", false
	}
	return tags.String(tag)
}

// HasVersion 判断 versions 下是否存在该键，不关心值的形状。
func (m *Metadata) HasVersion(version string) bool {
	versions, ok := m.Doc.Object("versions")
	return ok && versions.Has(version)
}

// VersionKeys 返回 versions 的全部键。
func (m *Metadata) VersionKeys() []string {
	versions, ok := m.Doc.Object("versions")
	if !ok {
		return nil
	}
	return versions.Keys()
}

// Tarball 返回 versions[version].dist.tarball。
func (m *Metadata) Tarball(version string) (string, bool) {
	versions, ok := m.Doc.Object("versions")
	if !ok {
		return "", false
	}
	record, ok := versions.Object(version)
	if !ok {
		return "", false
	}
	dist, ok := record.Object("dist")
	if !ok {
		return "", false
	}
	url, ok := dist.String("tarball")
	if !ok || url == "" {
		return "", false
	}
	return url, true
}

// Contents 是一个具体版本解包后的文件集合，构建完成后不再修改。
// Files 的键为去掉 package/ 前缀的相对路径。
type Contents struct {
	Name     string            `msgpack:"name"`
	Version  string            `msgpack:"version"`
	Files    map[string][]byte `msgpack:"files"`
	Manifest Document          `msgpack:"manifest"`
}

func (c *Contents) File(path string) ([]byte, bool) {
	body, ok := c.Files[path]
	return body, ok
}

// Paths 返回排序后的全部文件路径。
func (c *Contents) Paths() []string {
	paths := make([]string, 0, len(c.Files))
	for p := range c.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
