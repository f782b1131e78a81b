package npm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// comparator 是展开后的基本比较：op 取 <、<=、>、>=、=。
type comparator struct {
	op string
	v  *semver.Version
}

func (c comparator) matches(v *semver.Version) bool {
	cmp := v.Compare(c.v)
	switch c.op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return cmp == 0
	}
}

// versionRange 按 npm 语义表示 "||" 分隔的若干比较组。
type versionRange struct {
	groups [][]comparator
}

// partial 是可能带通配符的版本，parts 为通配符之前的数字段数。
type partial struct {
	major, minor, patch uint64
	parts               int
	pre                 string
}

var partialPattern = regexp.MustCompile(`^v?(0|[1-9]\d*|[xX*])(?:\.(0|[1-9]\d*|[xX*])(?:\.(0|[1-9]\d*|[xX*])(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?)?)?$`)

var operatorPattern = regexp.MustCompile(`^(<=|>=|<|>|=|~>|~|\^)?(.*)$`)

// parseRange 解析 npm 风格的范围：x 范围、~、^、连字符范围与比较符组合。
func parseRange(raw string) (*versionRange, error) {
	r := &versionRange{}
	for _, group := range strings.Split(raw, "||") {
		comps, err := parseGroup(strings.TrimSpace(group))
		if err != nil {
			return nil, err
		}
		r.groups = append(r.groups, comps)
	}
	return r, nil
}

func parseGroup(group string) ([]comparator, error) {
	tokens := joinOperators(strings.Fields(group))
	if len(tokens) == 0 {
		return anyVersion(), nil
	}
	if len(tokens) == 3 && tokens[1] == "-" {
		from, err := parsePartial(tokens[0])
		if err != nil {
			return nil, err
		}
		to, err := parsePartial(tokens[2])
		if err != nil {
			return nil, err
		}
		return hyphenRange(from, to), nil
	}

	var comps []comparator
	for _, token := range tokens {
		m := operatorPattern.FindStringSubmatch(token)
		p, err := parsePartial(m[2])
		if err != nil {
			return nil, err
		}
		expanded, err := expand(m[1], p)
		if err != nil {
			return nil, err
		}
		comps = append(comps, expanded...)
	}
	return comps, nil
}

// joinOperators 把 ">= 1.2.3" 这类被空格分开的比较符与版本合并。
func joinOperators(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if i+1 < len(tokens) && isOperator(tok) {
			tok += tokens[i+1]
			i++
		}
		out = append(out, tok)
	}
	return out
}

func isOperator(tok string) bool {
	switch tok {
	case "<", "<=", ">", ">=", "=", "~", "~>", "^":
		return true
	}
	return false
}

func parsePartial(raw string) (partial, error) {
	m := partialPattern.FindStringSubmatch(raw)
	if m == nil {
		return partial{}, fmt.Errorf("invalid version in range: %q", raw)
	}
	var p partial
	nums := []*uint64{&p.major, &p.minor, &p.patch}
	for i, field := range m[1:4] {
		if field == "" || field == "x" || field == "X" || field == "*" {
			break
		}
		n, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return partial{}, err
		}
		*nums[i] = n
		p.parts++
	}
	if p.parts == 3 {
		p.pre = m[4]
	}
	return p, nil
}

func expand(op string, p partial) ([]comparator, error) {
	switch op {
	case "", "=":
		if p.parts == 3 {
			return []comparator{{op: "=", v: p.version()}}, nil
		}
		return xRange(p), nil
	case "~", "~>":
		if p.parts < 3 {
			return xRange(p), nil
		}
		return []comparator{
			{op: ">=", v: p.version()},
			{op: "<", v: floor(p.major, p.minor+1, 0)},
		}, nil
	case "^":
		return caretRange(p), nil
	case ">":
		switch p.parts {
		case 0:
			return noVersion(), nil
		case 1:
			return []comparator{{op: ">=", v: semver.New(p.major+1, 0, 0, "", "")}}, nil
		case 2:
			return []comparator{{op: ">=", v: semver.New(p.major, p.minor+1, 0, "", "")}}, nil
		}
		return []comparator{{op: ">", v: p.version()}}, nil
	case ">=":
		if p.parts == 0 {
			return anyVersion(), nil
		}
		return []comparator{{op: ">=", v: p.version()}}, nil
	case "<":
		switch p.parts {
		case 0:
			return noVersion(), nil
		case 3:
			return []comparator{{op: "<", v: p.version()}}, nil
		}
		return []comparator{{op: "<", v: floor(p.major, p.minor, 0)}}, nil
	case "<=":
		if p.parts == 3 {
			return []comparator{{op: "<=", v: p.version()}}, nil
		}
		return upperExclusive(p), nil
	}
	return nil, fmt.Errorf("unsupported operator %q", op)
}

// xRange 展开 1、1.2、1.x 等通配写法。
func xRange(p partial) []comparator {
	if p.parts == 0 {
		return anyVersion()
	}
	return append([]comparator{{op: ">=", v: p.version()}}, upperExclusive(p)...)
}

func caretRange(p partial) []comparator {
	switch {
	case p.parts == 0:
		return anyVersion()
	case p.parts == 1:
		return xRange(p)
	case p.parts == 2 && p.major == 0:
		return xRange(p)
	}
	var upper *semver.Version
	switch {
	case p.major > 0:
		upper = floor(p.major+1, 0, 0)
	case p.minor > 0:
		upper = floor(0, p.minor+1, 0)
	default:
		upper = floor(0, 0, p.patch+1)
	}
	return []comparator{{op: ">=", v: p.version()}, {op: "<", v: upper}}
}

func hyphenRange(from, to partial) []comparator {
	var comps []comparator
	if from.parts > 0 {
		comps = append(comps, comparator{op: ">=", v: from.version()})
	}
	switch to.parts {
	case 0:
	case 3:
		comps = append(comps, comparator{op: "<=", v: to.version()})
	default:
		comps = append(comps, upperExclusive(to)...)
	}
	if len(comps) == 0 {
		return anyVersion()
	}
	return comps
}

// upperExclusive 返回部分版本的开区间上界，例如 1.2 → <1.3.0-0。
func upperExclusive(p partial) []comparator {
	switch p.parts {
	case 0:
		return anyVersion()
	case 1:
		return []comparator{{op: "<", v: floor(p.major+1, 0, 0)}}
	default:
		return []comparator{{op: "<", v: floor(p.major, p.minor+1, 0)}}
	}
}

func (p partial) version() *semver.Version {
	return semver.New(p.major, p.minor, p.patch, p.pre, "")
}

// floor 返回某个版本元组之下最小的预发布版本 X.Y.Z-0。
func floor(major, minor, patch uint64) *semver.Version {
	return semver.New(major, minor, patch, "0", "")
}

func anyVersion() []comparator {
	return []comparator{{op: ">=", v: semver.New(0, 0, 0, "", "")}}
}

func noVersion() []comparator {
	return []comparator{{op: "<", v: floor(0, 0, 0)}}
}

// satisfies 要求某一组的全部比较成立；预发布版本还需该组中有比较符
// 在相同 major.minor.patch 上带预发布标识。
func (r *versionRange) satisfies(v *semver.Version) bool {
	for _, group := range r.groups {
		if groupMatches(group, v) {
			return true
		}
	}
	return false
}

func groupMatches(group []comparator, v *semver.Version) bool {
	for _, c := range group {
		if !c.matches(v) {
			return false
		}
	}
	if v.Prerelease() == "" {
		return true
	}
	for _, c := range group {
		if c.v.Prerelease() == "" {
			continue
		}
		if c.v.Major() == v.Major() && c.v.Minor() == v.Minor() && c.v.Patch() == v.Patch() {
			return true
		}
	}
	return false
}
