// Package utils provides internal utility functions for the ingestion
// pipeline. This package is not intended to be imported by external
// code.
//
// It contains:
//   - Time formatting helpers
//   - Environment variable helpers
package utils
