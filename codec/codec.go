// Package codec centralizes encoding of persisted shard documents.
//
// Vecmesh intentionally treats codec selection as a breaking-change boundary:
// if you change codecs, persisted documents created by older codecs may no
// longer decode.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name. Persisted shard
// metadata records this name so load can pick the matching decoder.
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
