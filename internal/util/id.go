package util

import (
	"fmt"
	"strconv"
)

func ParseID(s string) (int64, error) {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse ID string: %w", err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("ID must be positive, got %d", val)
	}
	return val, nil
}

func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
