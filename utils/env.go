package utils

import "os"

// GetEnvOrDefault returns the environment value for key, or def when
// the variable is unset or empty.
func GetEnvOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}
