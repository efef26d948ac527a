package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides. GONOTIFY_DATABASE_URL
// overrides database.url.
const EnvPrefix = "GONOTIFY"

// defaults keep a bare config file runnable: SQLite store, log dead letters,
// ticker sweep.
var defaults = map[string]any{
	"app.name":                                "GoNotify",
	"app.server.http.address":                 ":8080",
	"auth.mode":                               "header",
	"auth.header":                             "X-User-Id",
	"database.driver":                         "sqlite",
	"database.sqlite.path":                    "notifications.db",
	"modules.notification.enabled":            true,
	"modules.notification.sweep.scheduler":    "ticker",
	"modules.notification.dead_letter.driver": "log",
	"redis.idempotency.prefix":                "notification:event:",
}

// Viper implements Config on spf13/viper with defaults, GONOTIFY_*
// environment overrides and live reload of the backing file.
type Viper struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper reads pathFile, whose extension selects the format, and watches it
// for changes.
func NewViper(pathFile string) (*Viper, error) {
	v := newViper()
	v.SetConfigFile(pathFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", filepath.Base(pathFile), err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info("config reloaded", "path", pathFile, "op", e.Op.String())
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes reads an in-memory document of configType ("yaml",
// "json", ...). Defaults and environment overrides still apply.
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return &Viper{v: v}, nil
}

func (vc *Viper) GetBool(key string) bool       { return vc.v.GetBool(key) }
func (vc *Viper) GetString(key string) string   { return vc.v.GetString(key) }
func (vc *Viper) GetInt(key string) int         { return vc.v.GetInt(key) }
func (vc *Viper) GetInt32(key string) int32     { return vc.v.GetInt32(key) }
func (vc *Viper) GetInt64(key string) int64     { return vc.v.GetInt64(key) }
func (vc *Viper) GetUint16(key string) uint16   { return vc.v.GetUint16(key) }
func (vc *Viper) GetFloat64(key string) float64 { return vc.v.GetFloat64(key) }

func (vc *Viper) GetMillisecond(key string) time.Duration { return vc.scaled(key, time.Millisecond) }
func (vc *Viper) GetSecond(key string) time.Duration      { return vc.scaled(key, time.Second) }
func (vc *Viper) GetMinute(key string) time.Duration      { return vc.scaled(key, time.Minute) }

func (vc *Viper) scaled(key string, unit time.Duration) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * unit
}

func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}
	return data
}

func (vc *Viper) GetArray(key string) []string {
	var raw []string
	switch val := vc.v.Get(key).(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = vc.v.GetStringSlice(key)
	}

	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Close is a no-op. The file watcher lives as long as the process.
func (vc *Viper) Close() error { return nil }
