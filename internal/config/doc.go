// Package config loads and validates the attrsd.json configuration used by
// the attrsd daemon: listen address, initial model properties, snapshot
// persistence and logging.
package config
