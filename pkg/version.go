package cutarelease

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Component is one element of a VersionInfo: either a number or a short
// alphanumeric pre-release tag such as "c2".
type Component struct {
	num   int
	tag   string
	isTag bool
}

// Num returns a numeric component.
func Num(n int) Component { return Component{num: n} }

// Tag returns a non-numeric component.
func Tag(s string) Component { return Component{tag: s, isTag: true} }

// IsNumeric reports whether c is a number.
func (c Component) IsNumeric() bool { return !c.isTag }

// Int returns the numeric value of c, or 0 for a tag.
func (c Component) Int() int { return c.num }

func (c Component) String() string {
	if c.isTag {
		return c.tag
	}
	return strconv.Itoa(c.num)
}

// VersionInfo is the ordered, typed decomposition of a version string, e.g.
// (1, 0, 7) or (1, 0, 0, 'c2').
type VersionInfo []Component

// Ints builds a purely numeric VersionInfo.
func Ints(parts ...int) VersionInfo {
	info := make(VersionInfo, len(parts))
	for i, p := range parts {
		info[i] = Num(p)
	}
	return info
}

var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+)([abc]\d*)?)?$`)

// ParseVersion converts a "MAJOR.MINOR[.PATCH[PRERELEASE]]" string, where
// PRERELEASE is one of a, b or c optionally followed by digits, into a
// VersionInfo.
func ParseVersion(s string) (VersionInfo, error) {
	m := versionRe.FindStringSubmatch(s)
	if m == nil {
		return nil, errorf(ErrInvalidVersion, "could not convert %q version to version info", s)
	}
	var info VersionInfo
	for _, g := range m[1:4] {
		if g == "" {
			break
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			return nil, errorf(ErrInvalidVersion, "could not convert %q version to version info: %v", s, err)
		}
		info = append(info, Num(n))
	}
	if m[4] != "" {
		info = append(info, Tag(m[4]))
	}
	return info, nil
}

// String renders the version. Components are dot-joined while they stay
// numeric; once a tag is seen everything after it is concatenated, so
// (1, 0, 0, 'c2') renders as "1.0.0c2".
func (v VersionInfo) String() string {
	if len(v) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(v[0].String())
	dotted := true
	for _, c := range v[1:] {
		if dotted && !c.IsNumeric() {
			dotted = false
		}
		if dotted {
			b.WriteByte('.')
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// Equal reports whether v and o have the same components.
func (v VersionInfo) Equal(o VersionInfo) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// IsPrerelease reports whether the last component is a tag.
func (v VersionInfo) IsPrerelease() bool {
	return len(v) > 0 && !v[len(v)-1].IsNumeric()
}

// Next returns the version with its last component incremented. There is no
// next version for a trailing pre-release tag.
func (v VersionInfo) Next() (VersionInfo, error) {
	if len(v) == 0 {
		return nil, errorf(ErrInvalidVersion, "empty version has no next version")
	}
	if v.IsPrerelease() {
		return nil, errorf(ErrInvalidVersion, "pre-release version %q has no next version", v.String())
	}
	next := make(VersionInfo, len(v))
	copy(next, v)
	next[len(next)-1] = Num(next[len(next)-1].num + 1)
	return next, nil
}

// Tuple renders v as a Python tuple literal: (1, 0, 7), (1,) or
// (1, 0, 0, 'c2').
func (v VersionInfo) Tuple() string {
	parts := make([]string, len(v))
	for i, c := range v {
		if c.IsNumeric() {
			parts[i] = c.String()
		} else {
			parts[i] = "'" + c.tag + "'"
		}
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var tagRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ParseTuple parses a Python tuple literal of ints and quoted strings.
func ParseTuple(s string) (VersionInfo, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, errorf(ErrInvalidVersion, "%q is not a tuple literal", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	body = strings.TrimSuffix(body, ",")
	if body == "" {
		return nil, errorf(ErrInvalidVersion, "empty version tuple %q", s)
	}
	var info VersionInfo
	for _, item := range strings.Split(body, ",") {
		item = strings.TrimSpace(item)
		if n, err := strconv.Atoi(item); err == nil {
			info = append(info, Num(n))
			continue
		}
		if len(item) >= 2 && (item[0] == '\'' || item[0] == '"') && item[len(item)-1] == item[0] {
			tag := item[1 : len(item)-1]
			if tagRe.MatchString(tag) {
				info = append(info, Tag(tag))
				continue
			}
		}
		return nil, errorf(ErrInvalidVersion, "bad element %q in version tuple %q", item, s)
	}
	if !info[0].IsNumeric() {
		return nil, errorf(ErrInvalidVersion, "version tuple %q must start with a number", s)
	}
	return info, nil
}

// GoString is used by %#v in test failures.
func (v VersionInfo) GoString() string { return fmt.Sprintf("VersionInfo%s", v.Tuple()) }
