// Package config holds the library configuration.
//
// Settings for the object-storage client are sourced from environment
// variables (or a YAML file via LoadFile) once at process start and passed
// by reference into the clients that need them. There is no package-level
// singleton.
package config
