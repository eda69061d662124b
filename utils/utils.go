package utils

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// UnmarshalFile reads a JSON file into dest.
func UnmarshalFile(filePath string, dest any) error {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %s", filePath, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to parse file %s: %s", filePath, err)
	}
	return nil
}

func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
