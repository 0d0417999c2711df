package maps

import "github.com/mitchellh/mapstructure"

// Map2Struct Decode takes an input structure and uses reflection to translate it to
// the output structure. output must be a pointer to a map or struct.
func Map2Struct(input interface{}, output interface{}) error {
	return mapstructure.Decode(input, output)
}

// WeakMap2Struct is Map2Struct with weakly typed input, e.g. "true" decodes
// into a bool field and 1 into a string field. Script exports and config files
// both produce such loosely typed maps.
func WeakMap2Struct(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
