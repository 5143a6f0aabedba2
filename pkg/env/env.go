// Package env reads raw environment variables for the few settings
// needed before config.Load has run, such as the log output format.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when the variable
// is unset or blank.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return fallback
	}
	return val
}
