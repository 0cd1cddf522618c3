// Package codec encodes archive manifests.
//
// A manifest records the name of the codec that wrote it, so archives stay
// readable after the default changes. Switching the default never rewrites
// existing archives.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Names lists the built-in codec names.
func Names() []string {
	return []string{"json", "go-json"}
}

// Resolve is like ByName but reports an error for unknown names.
// An empty name selects Default.
func Resolve(name string) (Codec, error) {
	if name == "" {
		return Default, nil
	}
	c, ok := ByName(name)
	if !ok {
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
	return c, nil
}
