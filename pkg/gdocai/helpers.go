package gdocai

import (
	"encoding/json"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ToJSON converts a Document AI message or a plain Go value to indented
// JSON. Protocol buffer messages go through protojson so field names match
// the API.
func ToJSON(data interface{}) (string, error) {
	switch v := data.(type) {
	case proto.Message:
		out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(out), nil

	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}
