// Package config reads the service configuration. Keys are dotted paths into
// config.yaml, for example "modules.notification.sweep.batch_size".
package config

import (
	"io"
	"time"
)

// Config returns the zero value for missing or unconvertible keys. Duration
// getters read an integer and scale it by the unit in their name.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary decodes a base64 value, such as inline service account JSON.
	GetBinary(key string) []byte

	// GetArray accepts a YAML sequence or a comma separated string. Blank
	// elements are dropped.
	GetArray(key string) []string
}
