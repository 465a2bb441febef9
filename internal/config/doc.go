// Package config loads the JSON launch configuration for a counting run.
//
// Fields are pointers so a partial file can be told apart from explicit
// zero values; the Get* accessors supply defaults for anything omitted.
package config
