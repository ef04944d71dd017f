package utils

import (
	"fmt"

	"github.com/spf13/cast"
)

func IfaceToInt64(digit interface{}) (int64, error) {
	value, err := cast.ToInt64E(digit)
	if err != nil {
		return 0, fmt.Errorf("wrong interface type: %w", err)
	}

	return value, nil
}

// IfaceToUint reads a non-negative integer.
func IfaceToUint(digit interface{}) (uint, error) {
	value, err := IfaceToInt64(digit)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, fmt.Errorf("negative value %d", value)
	}

	return uint(value), nil
}
