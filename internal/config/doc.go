// Package config parses the options of a keyed store: the fingerprint
// separator, key digesting and the logging specification.
package config
