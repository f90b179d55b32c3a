// Package config handles application configuration loading and validation.
//
// Configuration is loaded from a YAML file and validated using struct
// tags. Defaults are filled in after unmarshalling so a minimal file
// only needs the database coordinates and the dataset list.
package config
