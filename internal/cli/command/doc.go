// Package command provides the meshcache command-line commands.
//
// It uses urfave/cli/v2 for command parsing. The copy command transcodes
// one mesh object between archives, layering defaults, a YAML job file,
// MESHCACHE_* environment variables and flags. The info command lists the
// objects and properties of an archive.
package command
