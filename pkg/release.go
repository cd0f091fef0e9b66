package cutarelease

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// ReleaseMeta holds metadata about a release run.
type ReleaseMeta struct {
	Version     string // The version being released.
	NextVersion string // The development version the project advances to.
	Tag         string // The tag created (or found) for Version.
	DryRun      bool
	// Aborted is set when the user stopped the run at a prompt. This is not
	// an error.
	Aborted     bool
	AbortReason string
	// Actions lists the mutations performed, or in dry-run the ones that
	// would have been performed, in order.
	Actions      []string
	UpdatedFiles []string // Paths of all files written (or that would be).
	Changelog    string   // Final changelog text.
}

// Env is everything a Releaser touches outside of its own state.
type Env struct {
	// Dir is the project directory; relative paths resolve against it and
	// commands run in it.
	Dir    string
	Log    zerolog.Logger
	Runner Runner
	Prompt Prompter
}

// Options control a release.
type Options struct {
	// Project is used to guess the version file. Defaults to the base name
	// of Env.Dir.
	Project string
	// VersionFiles are "path" or "type:path" specs; the first one is
	// authoritative for the current version. Guessed when empty.
	VersionFiles []string
	Changelog    string
	DryRun       bool
	Publish      PublishConfig
}

// OptionsFromConfig maps a loaded Config onto Options.
func OptionsFromConfig(cfg *Config) Options {
	return Options{
		Project:      cfg.Project,
		VersionFiles: cfg.VersionFiles,
		Changelog:    cfg.Changelog,
		Publish:      cfg.Publish,
	}
}

const (
	prepareMessage = "prepare for %s release"
	futureMessage  = "prep for future dev"
)

// Releaser cuts one release.
type Releaser struct {
	env  Env
	opts Options
	git  git
	log  zerolog.Logger
	meta ReleaseMeta
}

// New returns a Releaser, filling in defaults for unset fields.
func New(env Env, opts Options) *Releaser {
	if env.Dir == "" {
		env.Dir = "."
	}
	if env.Runner == nil {
		env.Runner = NewExecRunner()
	}
	if env.Prompt == nil {
		env.Prompt = NewTermPrompter(os.Stdin, os.Stdout)
	}
	def := NewDefaultConfig()
	if opts.Changelog == "" {
		opts.Changelog = def.Changelog
	}
	if len(opts.Publish.NPM) == 0 {
		opts.Publish.NPM = def.Publish.NPM
	}
	if len(opts.Publish.PyPI) == 0 {
		opts.Publish.PyPI = def.Publish.PyPI
	}
	if opts.Project == "" {
		if abs, err := filepath.Abs(env.Dir); err == nil {
			opts.Project = filepath.Base(abs)
		}
	}
	log := env.Log
	if opts.DryRun {
		log = log.With().Bool("dry_run", true).Logger()
	}
	return &Releaser{
		env:  env,
		opts: opts,
		git:  git{runner: env.Runner, dir: env.Dir},
		log:  log,
	}
}

// VersionFileCandidates lists, in order, the files tried when no version
// file is given.
func VersionFileCandidates(project string) []string {
	return []string{
		"package.json",
		"VERSION.txt",
		"VERSION",
		project + ".py",
		filepath.Join("lib", project+".py"),
		project + ".js",
		filepath.Join("lib", project+".js"),
	}
}

// Run cuts the release: validate, commit the release-ready changelog, tag
// and push, optionally publish, then advance the changelog and version files
// to the next version, commit and push. In dry-run mode nothing is written,
// committed, tagged, pushed or published.
//
// A user declining a prompt ends the run early with ReleaseMeta.Aborted set
// and a nil error.
func (r *Releaser) Run(ctx context.Context) (ReleaseMeta, error) {
	r.meta = ReleaseMeta{DryRun: r.opts.DryRun}

	// 1. Resolve and parse version files.
	specs, err := r.versionFileSpecs()
	if err != nil {
		return r.meta, err
	}
	files := make([]*VersionFile, len(specs))
	for i, spec := range specs {
		if files[i], err = ParseVersionFile(r.env.Dir, spec); err != nil {
			return r.meta, err
		}
		r.log.Debug().Str("file", files[i].Path).Str("format", files[i].Format.String()).
			Str("version", files[i].Version.String()).Msg("parsed version file")
	}
	if !r.opts.DryRun {
		if err := r.git.check(ctx); err != nil {
			return r.meta, err
		}
	}

	// 2. Current and next version, confirmed by the user.
	current := files[0].Version
	version := current.String()
	next, err := current.Next()
	if err != nil {
		return r.meta, errorf(ErrState, "can't cut a %s release: %v", version, err)
	}
	r.meta.Version = version
	r.meta.NextVersion = next.String()
	r.meta.Tag = version
	if !r.opts.DryRun {
		ok, err := r.env.Prompt.Confirm(fmt.Sprintf("Are you sure you want cut a %s release?\n"+
			"This will involve commits and a push.", version), DefaultNo)
		if err != nil {
			return r.meta, err
		}
		if !ok {
			return r.abort("user abort")
		}
	}
	r.log.Info().Str("version", version).Msg("cutting a release")

	// 3. Validate the changelog.
	cl, err := LoadChangelog(resolve(r.env.Dir, r.opts.Changelog))
	if err != nil {
		return r.meta, err
	}
	top := cl.Top()
	if top.Version != version {
		return r.meta, errorf(ErrVersionMismatch, "changelog %q top section says version %q, expected version %q: aborting",
			r.opts.Changelog, top.Version, version)
	}
	if top.Released() {
		released, err := r.env.Prompt.Confirm(fmt.Sprintf("The changelog %q top section doesn't have the expected\n"+
			"%q marker. Has this been released already?", r.opts.Changelog, ReleaseMarker), DefaultYes)
		if err != nil {
			return r.meta, err
		}
		if released {
			return r.abort("already released")
		}
	}
	if top.IsEmpty() {
		return r.meta, errorf(ErrEmptyRelease, "top section body is %q: it looks like nothing has been added to this release", NothingYet)
	}

	// 4. Commit the release-ready changelog.
	text, changed := MarkReleased(cl.Text)
	if changed {
		if err := r.write(r.opts.Changelog, text); err != nil {
			return r.meta, err
		}
		msg := fmt.Sprintf(prepareMessage, version)
		if err := r.do(fmt.Sprintf("commit %s: %s", r.opts.Changelog, msg), func() error {
			return r.git.commit(ctx, msg, r.opts.Changelog)
		}); err != nil {
			return r.meta, err
		}
	} else {
		r.log.Info().Str("changelog", r.opts.Changelog).Msg("changelog already prepared for release")
	}

	// 5. Tag and push.
	if err := r.tag(ctx, version); err != nil {
		return r.meta, err
	}

	// 6. Publish.
	if err := r.publish(ctx); err != nil {
		return r.meta, err
	}

	// 7-9. Advance the changelog and every version file. All new contents are
	// computed before the first write.
	r.log.Info().Str("version", next.String()).Msg("prepare for future dev")
	nextText, err := OpenNextSection(text, top, next.String())
	if err != nil {
		return r.meta, fmt.Errorf("changelog %q: %w", r.opts.Changelog, err)
	}
	contents := make([]string, len(files))
	for i, vf := range files {
		if contents[i], err = vf.Rewrite(current, next); err != nil {
			return r.meta, err
		}
	}
	r.meta.Changelog = nextText
	if err := r.write(r.opts.Changelog, nextText); err != nil {
		return r.meta, err
	}
	paths := []string{r.opts.Changelog}
	for i, vf := range files {
		if err := r.write(vf.Path, contents[i]); err != nil {
			return r.meta, err
		}
		paths = append(paths, vf.Path)
	}

	// 10. Commit and push.
	if err := r.do(fmt.Sprintf("commit %s: %s", strings.Join(paths, " "), futureMessage), func() error {
		return r.git.commit(ctx, futureMessage, paths...)
	}); err != nil {
		return r.meta, err
	}
	if err := r.do("push", func() error { return r.git.push(ctx) }); err != nil {
		return r.meta, err
	}
	return r.meta, nil
}

func (r *Releaser) versionFileSpecs() ([]string, error) {
	if len(r.opts.VersionFiles) > 0 {
		return r.opts.VersionFiles, nil
	}
	r.log.Info().Msg("guessing version file")
	candidates := VersionFileCandidates(r.opts.Project)
	for _, c := range candidates {
		if exists(resolve(r.env.Dir, c)) {
			r.log.Info().Str("file", c).Msg("using version file")
			return []string{c}, nil
		}
	}
	return nil, errorf(ErrNoVersionFile, "could not find a version file: specify its path or add one of the following to your project: '%s'",
		strings.Join(candidates, "', '"))
}

// tag creates and pushes the release tag unless it already exists.
func (r *Releaser) tag(ctx context.Context, version string) error {
	tags, err := r.git.tags(ctx)
	if err != nil {
		if !r.opts.DryRun {
			return err
		}
		r.log.Warn().Err(err).Msg("could not list tags")
	}
	if newer := newerTag(tags, version); newer != "" {
		r.log.Warn().Str("tag", newer).Str("version", version).Msg("an existing tag is newer than the release being cut")
	}
	if slices.Contains(tags, version) {
		r.log.Info().Str("tag", version).Msg("tag already exists, skipping tag and push")
		return nil
	}
	if err := r.do("tag "+version, func() error { return r.git.tag(ctx, version) }); err != nil {
		return err
	}
	return r.do("push tags", func() error { return r.git.pushTags(ctx) })
}

// publish offers to publish to npm when there is a package.json, or else to
// PyPI when there is a setup.py.
func (r *Releaser) publish(ctx context.Context) error {
	if r.opts.Publish.Disabled {
		r.log.Debug().Msg("publishing disabled")
		return nil
	}
	var target string
	var c Command
	switch {
	case exists(resolve(r.env.Dir, "package.json")):
		target = "npm"
		c = Cmd(r.env.Dir, r.opts.Publish.NPM[0], r.opts.Publish.NPM[1:]...)
	case exists(resolve(r.env.Dir, "setup.py")):
		target = "pypi"
		c = Cmd(r.env.Dir, r.opts.Publish.PyPI[0], r.opts.Publish.PyPI[1:]...)
		if runtime.GOOS == "darwin" {
			// Keeps Apple's tar from adding ._* files for extended attributes.
			c.Env = []string{"COPY_EXTENDED_ATTRIBUTES_DISABLE=1"}
		}
	default:
		return nil
	}
	if r.opts.DryRun {
		return r.do("publish to "+target+" (after confirmation)", nil)
	}
	ok, err := r.env.Prompt.Confirm("Publish to "+target+"?", DefaultYes)
	if err != nil {
		return err
	}
	if !ok {
		r.log.Info().Str("target", target).Msg("skipping publish")
		return nil
	}
	return r.do("publish to "+target, func() error { return r.env.Runner.Run(ctx, c) })
}

// do records action and runs fn, or only logs it in dry-run mode.
func (r *Releaser) do(action string, fn func() error) error {
	r.meta.Actions = append(r.meta.Actions, action)
	if r.opts.DryRun {
		r.log.Info().Msg("would " + action)
		return nil
	}
	r.log.Info().Msg(action)
	if fn == nil {
		return nil
	}
	return fn()
}

func (r *Releaser) write(path, content string) error {
	if !slices.Contains(r.meta.UpdatedFiles, path) {
		r.meta.UpdatedFiles = append(r.meta.UpdatedFiles, path)
	}
	return r.do("write "+path, func() error {
		return writeFile(resolve(r.env.Dir, path), content)
	})
}

func (r *Releaser) abort(reason string) (ReleaseMeta, error) {
	r.log.Info().Str("reason", reason).Msg("abort")
	r.meta.Aborted = true
	r.meta.AbortReason = reason
	return r.meta, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeFile replaces the content of an existing file, keeping its mode.
func writeFile(path, content string) error {
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}
