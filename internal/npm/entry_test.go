package npm

import "testing"

func TestResolveEntry(t *testing.T) {
	testCases := []struct {
		name     string
		manifest Document
		files    map[string][]byte
		want     string
	}{
		{
			name:     "jsdelivr wins",
			manifest: Document{"jsdelivr": "./dist/cdn.js", "main": "index.js"},
			want:     "dist/cdn.js",
		},
		{
			name: "exports dot object default",
			manifest: Document{
				"exports": map[string]any{".": map[string]any{"import": "./esm.mjs", "default": "./cjs.js"}},
				"main":    "main.js",
			},
			want: "cjs.js",
		},
		{
			name:     "exports dot string",
			manifest: Document{"exports": map[string]any{".": "./lib/index.js"}},
			want:     "lib/index.js",
		},
		{
			name: "exports dot object without default falls through to main",
			manifest: Document{
				"exports": map[string]any{".": map[string]any{"import": "./esm.mjs"}},
				"main":    "./main.js",
			},
			want: "main.js",
		},
		{
			name:     "main",
			manifest: Document{"main": "lib/main.js"},
			want:     "lib/main.js",
		},
		{
			name:     "index.js fallback",
			manifest: Document{"name": "x"},
			files:    map[string][]byte{"index.js": []byte("1")},
			want:     "index.js",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveEntry(&Contents{Manifest: tc.manifest, Files: tc.files})
			if err != nil {
				t.Fatalf("解析入口失败: %v", err)
			}
			if got != tc.want {
				t.Fatalf("期望 %s，得到 %s", tc.want, got)
			}
		})
	}
}

func TestResolveEntryNotFound(t *testing.T) {
	c := &Contents{
		Manifest: Document{"name": "x", "main": 42},
		Files:    map[string][]byte{"lib.js": []byte("1")},
	}
	if _, err := ResolveEntry(c); KindOf(err) != KindNotFound {
		t.Fatalf("无入口时应返回 NotFound，得到 %v", err)
	}
}
