// Package main implements the cutarelease CLI tool.
//
// The cutarelease tool automates cutting a release of a git project that
// keeps a changelog (CHANGES.md by default) and one or more version files.
// It checks that the top changelog section names the version being released
// and is marked " (not yet released)", commits the changelog with the marker
// removed, tags the commit with the version and pushes the tag, offers to
// publish to npm (package.json) or PyPI (setup.py), then bumps the patch
// version in every version file, opens a new "(nothing yet)" changelog
// section for it, commits and pushes.
//
// Command Usage:
//
//	cutarelease [flags]
//
// Flags:
//
//	-p, --project-name: The project name, used to guess the version file.
//	                    (Defaults to the base name of the project directory)
//	-f, --version-file: A [TYPE:]PATH of a file holding the version. May be repeated;
//	                    the first file is authoritative. TYPE is one of json,
//	                    javascript (js), python (py) or version (text).
//	-c, --changelog:    The changelog path. (Defaults to "CHANGES.md")
//	-C, --dir:          The project directory. (Defaults to ".")
//	--config:           A YAML config file. (Defaults to ".cutarelease.yml", optional)
//	-n, --dry-run:      Validate and report without writing, committing, tagging or pushing.
//	-y, --yes:          Answer yes to every question.
//	--no-publish:       Never offer to publish.
//	-v, --verbose:      More verbose output.
//	-q, --quiet:        Only warnings and errors.
//	--version:          Displays the version of the cutarelease CLI tool and exits.
//
// Each flag can also be set with a CUTARELEASE_* environment variable, and a
// .env file in the current directory is loaded on start, before flags are
// parsed. It is not looked up in the --dir project directory.
//
// Version files:
//
//	package.json          {"version": "1.2.3"}
//	foo.js                var VERSION = "1.2.3";
//	foo.py                __version_info__ = (1, 2, 3)
//	VERSION, VERSION.txt  1.2.3
//
// Changelog:
//
//	# foo Changelog
//
//	## foo 1.2.3 (not yet released)
//
//	- Added bar.
//
//	## foo 1.2.2
//
//	...
//
// Examples:
//
//	# See what would happen
//	cutarelease -n
//
//	# Release with two version files
//	cutarelease -f lib/foo.js -f package.json
//
// The exit status is 0 on success or when the release is declined at a
// prompt, 1 on any error and 130 when interrupted.
//
// For the library API see the "pkg" package.
package main
