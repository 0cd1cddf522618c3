// Package config loads meshcache CLI jobs.
//
// Sources are layered with Koanf, later sources overriding earlier ones:
// defaults, a YAML file, MESHCACHE_* environment variables, command-line
// flags. Environment names map to keys by dropping the prefix, lowering
// case and turning underscores into dots, so MESHCACHE_LOG_LEVEL sets
// log.level.
package config
