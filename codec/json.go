package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Shard documents (item logs, metadata, link tables) are map-like and
// struct-like; JSON is stable and portable for all of them. If you need a
// custom encoding, implement Codec and pass it where supported.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: This affects newly-written shard documents. The on-disk layout is
// plain JSON either way; the two built-in codecs are wire-compatible.
var Default Codec = GoJSON{}
