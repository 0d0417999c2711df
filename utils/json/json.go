package json

import (
	"bytes"
	"encoding/json"
)

// MarshalIndent marshals v with every element on its own line, indented by indent.
// escapeHTML=false, subscription urls keep their & unescaped
func MarshalIndent(v interface{}, indent string) ([]byte, error) {
	return Marshal2(v, false, indent)
}

func Marshal2(v interface{}, escapeHTML bool, indent string) ([]byte, error) {
	var byteBuf bytes.Buffer
	encoder := json.NewEncoder(&byteBuf)
	encoder.SetEscapeHTML(escapeHTML)
	if indent != "" {
		encoder.SetIndent("", indent)
	}
	err := encoder.Encode(v)
	if err == nil && byteBuf.Len() > 0 {
		return byteBuf.Bytes()[:byteBuf.Len()-1], err
	} else {
		return byteBuf.Bytes(), err
	}
}

// Unmarshal json data to struct
func Unmarshal(b []byte, m interface{}) error {
	return json.Unmarshal(b, m)
}
