package cutarelease

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// git runs the handful of git commands a release needs in one directory.
type git struct {
	runner Runner
	dir    string
}

func (g git) cmd(args ...string) Command {
	return Cmd(g.dir, "git", args...)
}

// check verifies that git is available on the system.
func (g git) check(ctx context.Context) error {
	if _, err := g.runner.Output(ctx, g.cmd("--version")); err != nil {
		return fmt.Errorf("git is not available on the system: %w", err)
	}
	return nil
}

// tags lists the existing tag names.
func (g git) tags(ctx context.Context) ([]string, error) {
	out, err := g.runner.Output(ctx, g.cmd("tag", "-l"))
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, t := range strings.Split(out, "\n") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// commit commits the given paths only, whatever else is staged.
func (g git) commit(ctx context.Context, msg string, paths ...string) error {
	args := append([]string{"commit"}, paths...)
	args = append(args, "-m", msg)
	return g.runner.Run(ctx, g.cmd(args...))
}

// tag creates an annotated tag named after version.
func (g git) tag(ctx context.Context, version string) error {
	return g.runner.Run(ctx, g.cmd("tag", "-a", version, "-m", "version "+version))
}

func (g git) pushTags(ctx context.Context) error {
	return g.runner.Run(ctx, g.cmd("push", "--tags"))
}

func (g git) push(ctx context.Context) error {
	return g.runner.Run(ctx, g.cmd("push"))
}

// canonicalTag maps "1.2.3" and "v1.2.3" to the "v"-prefixed form semver
// expects, or "" if the tag is not a semantic version.
func canonicalTag(tag string) string {
	v := tag
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// newerTag returns the highest semver tag that sorts above version, or "".
// Versions that are not semver (such as "1.0.0c2") are never compared.
func newerTag(tags []string, version string) string {
	cur := canonicalTag(version)
	if cur == "" {
		return ""
	}
	best, bestTag := cur, ""
	for _, t := range tags {
		if v := canonicalTag(t); v != "" && semver.Compare(v, best) > 0 {
			best, bestTag = v, t
		}
	}
	return bestTag
}
