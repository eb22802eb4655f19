package codec

import "encoding/json"

// JSON encodes with encoding/json. Its output is interchangeable with GoJSON
// for the structs the bridge sends.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return "json" }

// Default encodes the geometry descriptor and capture metadata.
var Default Codec = GoJSON{}
