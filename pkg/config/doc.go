// Package config loads the provisioning daemon configuration from YAML.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default.
package config
