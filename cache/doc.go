// Package cache keeps recently decoded archive chunks in memory.
//
// A cursor that steps back and forth over the same samples would otherwise
// re-read and re-decompress the same chunks on every move. The LRU is keyed
// by (archive id, offset), sized in decoded bytes, and optionally charges its
// memory to a resource.Controller so several open archives share one budget.
package cache
