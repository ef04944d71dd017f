package utils

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodeRequest converts a handler payload (usually a decoded JSON map) into v.
func DecodeRequest(data interface{}, v interface{}) error {
	if data == nil {
		return fmt.Errorf("wrong request body")
	}

	raw, ok := data.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("wrong request body: %w", err)
		}
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("wrong request body: %w", err)
	}

	return nil
}
