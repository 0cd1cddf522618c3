// Package main provides the entry point for meshcache.
//
// meshcache inspects time-sampled mesh archives and transcodes mesh
// objects between archives and storage backends.
package main
