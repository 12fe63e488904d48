package config

import (
	"github.com/mitchellh/mapstructure"
)

// decode decodes a raw config map into a factory,
// converting duration strings along the way.
func decode(input map[string]interface{}, output interface{}) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     output,
	})
	if err != nil {
		return err
	}

	return d.Decode(input)
}
