package cutarelease

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// ReleaseMarker trails the top changelog heading until the release is cut.
	ReleaseMarker = " (not yet released)"
	// NothingYet is the body of a freshly opened changelog section.
	NothingYet = "(nothing yet)"

	headingPrefix     = "##"
	changelogTemplate = "## 1.0.0 (not yet released)\n\n(nothing yet)\n"
)

// Section is one "## <verline>" section of a changelog.
type Section struct {
	// Heading is the raw heading line, trailing space trimmed.
	Heading string
	// Verline is the heading text after "##", surrounding space trimmed.
	Verline string
	// Body is everything after the heading line up to the next section.
	Body string
	// Offset is the byte offset of the heading line in the document.
	Offset int
	// Version is only set on the top section.
	Version string
}

// Released reports whether the heading lacks the release marker.
func (s Section) Released() bool {
	return !strings.HasSuffix(s.Verline, ReleaseMarker)
}

// IsEmpty reports whether the body is only the NothingYet placeholder.
func (s Section) IsEmpty() bool {
	return strings.TrimSpace(s.Body) == NothingYet
}

// Changelog is a parsed changelog document.
type Changelog struct {
	Path     string
	Text     string
	Sections []Section
}

// Top returns the first (most recent) section.
func (c *Changelog) Top() Section { return c.Sections[0] }

// LoadChangelog reads and parses the changelog at path.
func LoadChangelog(path string) (*Changelog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errorf(ErrInput, "changelog file %q not found", path)
		}
		return nil, fmt.Errorf("failed to read changelog %q: %w", path, err)
	}
	c, err := ParseChangelog(string(data))
	if err != nil {
		return nil, fmt.Errorf("changelog %q: %w", path, err)
	}
	c.Path = path
	return c, nil
}

// ParseChangelog splits text into its sections and extracts the version of
// the top one.
func ParseChangelog(text string) (*Changelog, error) {
	c := &Changelog{Text: text}
	var cur *Section
	bodyStart := 0
	for off := 0; off < len(text); {
		end := strings.IndexByte(text[off:], '\n')
		next := len(text)
		if end >= 0 {
			next = off + end + 1
		}
		line := strings.TrimRight(text[off:next], "\r\n")
		if isHeading(line) {
			if cur != nil {
				cur.Body = text[bodyStart:off]
				c.Sections = append(c.Sections, *cur)
			}
			cur = &Section{
				Heading: strings.TrimRight(line, " \t"),
				Verline: strings.TrimSpace(line[len(headingPrefix):]),
				Offset:  off,
			}
			bodyStart = next
		}
		off = next
	}
	if cur == nil {
		return nil, errorf(ErrEmptyChangelog, "must have at least one section, suggestion:\n\n%s", indent(changelogTemplate))
	}
	cur.Body = text[bodyStart:]
	c.Sections = append(c.Sections, *cur)

	v, err := topVersion(c.Sections[0].Verline)
	if err != nil {
		return nil, err
	}
	c.Sections[0].Version = v
	return c, nil
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, headingPrefix) && !strings.HasPrefix(line, headingPrefix+"#")
}

func topVersion(verline string) (string, error) {
	fields := strings.Fields(strings.TrimSuffix(verline, ReleaseMarker))
	if len(fields) == 0 {
		return "", errorf(ErrInvalidVersionToken, "top section heading %q has no version", verline)
	}
	v := fields[len(fields)-1]
	if v[0] < '0' || v[0] > '9' {
		hint := ""
		if strings.HasSuffix(v, ")") {
			hint = fmt.Sprintf(" (the trailing %q on the top version line must be exact, perhaps it is misspelled?)", ReleaseMarker)
		}
		return "", errorf(ErrInvalidVersionToken, "top section version %q is invalid: first char isn't a number%s", v, hint)
	}
	return v, nil
}

// MarkReleased removes the first release marker from text. changed is false,
// and text is returned as is, when there is no marker left to remove.
func MarkReleased(text string) (out string, changed bool) {
	if !strings.Contains(text, ReleaseMarker) {
		return text, false
	}
	return strings.Replace(text, ReleaseMarker, "", 1), true
}

// OpenNextSection inserts a new top section for version next above the
// heading of top, which must already be marked as released in text.
func OpenNextSection(text string, top Section, next string) (string, error) {
	heading := strings.TrimRight(strings.TrimSuffix(top.Heading, ReleaseMarker), " \t")
	at := indexLine(text, heading)
	if at < 0 {
		return "", errorf(ErrMarkerNotFound, "couldn't find %q heading: can't prep for subsequent dev", heading)
	}
	prefix := strings.TrimRight(strings.TrimSuffix(heading, top.Version), " \t")
	section := fmt.Sprintf("%s %s%s\n\n%s\n\n\n", prefix, next, ReleaseMarker, NothingYet)
	return text[:at] + section + text[at:], nil
}

// indexLine returns the offset of the first line of text that is line,
// optionally followed by trailing blanks.
func indexLine(text, line string) int {
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], line)
		if i < 0 {
			return -1
		}
		at := off + i
		rest := strings.TrimLeft(text[at+len(line):], " \t")
		if (at == 0 || text[at-1] == '\n') && (rest == "" || rest[0] == '\n' || rest[0] == '\r') {
			return at
		}
		off = at + 1
	}
	return -1
}

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString("    " + l)
	}
	return b.String()
}
