// Package cutarelease provides a library for cutting releases of git projects.
//
// It provides functionalities for:
//   - Reading and rewriting version files in a handful of formats: JSON manifests
//     ("version" field), JavaScript (`var VERSION = "1.2.3";`), Python
//     (`__version_info__ = (1, 2, 3)`) and plain VERSION files.
//   - Parsing version strings into typed components and computing the next
//     patch version.
//   - Parsing a "## <heading>" changelog, marking its top section as released and
//     opening a new section for the next version.
//   - Driving the whole release through git: commit, annotated tag, push, optional
//     npm/PyPI publish, and the follow-up "prep for future dev" commit. Every
//     step that can be is idempotent, so a run that failed half way can simply
//     be run again.
//
// This library is used by the cutarelease command-line tool at the root of this
// module, and can be driven programmatically with test doubles for the process
// runner and the prompt.
//
// Usage Example:
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    "github.com/rs/zerolog"
//	    cutarelease "github.com/bcomnes/cutarelease/pkg"
//	)
//
//	func main() {
//	    r := cutarelease.New(cutarelease.Env{
//	        Dir:    ".",
//	        Log:    cutarelease.NewLogger(os.Stderr, zerolog.InfoLevel),
//	        Prompt: cutarelease.AssumeYes{},
//	    }, cutarelease.Options{DryRun: true})
//	    meta, err := r.Run(context.Background())
//	    if err != nil {
//	        log.Fatalf("release failed: %v", err)
//	    }
//	    log.Printf("would release %s, then move to %s", meta.Version, meta.NextVersion)
//	}
package cutarelease
