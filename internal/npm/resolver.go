package npm

import (
	"github.com/Masterminds/semver/v3"
)

// ResolveVersion 按 latest → dist-tag → 精确版本 → semver 范围 的顺序解析版本。
// dist-tag 的值原样返回，不要求出现在 versions 中。
func ResolveVersion(meta *Metadata, spec string) (string, error) {
	if spec == "" {
		if latest, ok := meta.DistTag("latest"); ok {
			return latest, nil
		}
		return "", NotFound("no latest version found for %s", meta.Name)
	}

	if tagged, ok := meta.DistTag(spec); ok {
		return tagged, nil
	}
	if meta.HasVersion(spec) {
		return spec, nil
	}
	if best, ok := maxSatisfying(meta.VersionKeys(), spec); ok {
		return best, nil
	}
	return "", NotFound("no matching version found for '%s'", spec)
}

// maxSatisfying 返回满足范围的最大版本键，预发布版本遵循 npm 的同元组规则；
// 范围无法解析时视为无匹配。
func maxSatisfying(keys []string, rangeSpec string) (string, bool) {
	r, err := parseRange(rangeSpec)
	if err != nil {
		return "", false
	}
	var best *semver.Version
	for _, key := range keys {
		v, err := semver.StrictNewVersion(key)
		if err != nil {
			continue
		}
		if !r.satisfies(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best == nil {
		return "", false
	}
	return best.Original(), true
}
