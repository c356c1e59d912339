// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config bootstraps the RTL's tunable defaults — search path
// seed, cache sizes, allocator hook preference — from a YAML file and
// RTL_-prefixed environment variables, in the manner of cucaracha's
// cmd/root.go initConfig. It never changes §4.1-§4.8's required
// behavior; it only seeds the values those components start with.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the set of bootstrap values rtl.New and its caches read
// at startup.
type Config struct {
	// Path is the initial colon-delimited search path, before any
	// runtime path_append/path_prepend calls.
	Path string

	// CacheSize is the byte size used for each of the four read-ahead
	// caches (sections, symbols, strings, relocs).
	CacheSize int

	// UseAllocatorHooks records the allocator hook preference read
	// from the file or environment. rtl.NewWithConfig does not apply
	// it.
	UseAllocatorHooks bool
}

// defaults are a reasonable 2048-byte cache size and the RTL façade's
// "." initial search path.
func defaults() Config {
	return Config{
		Path:              ".",
		CacheSize:         2048,
		UseAllocatorHooks: false,
	}
}

// Load reads path (a YAML file) if it exists, then overlays any
// RTL_-prefixed environment variables (e.g. RTL_CACHE_SIZE), following
// cucaracha's initConfig pattern of config-file-then-environment. A
// missing file is not an error — Load falls back to defaults().
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RTL")
	v.AutomaticEnv()

	v.SetDefault("path", ".")
	v.SetDefault("cache_size", 2048)
	v.SetDefault("use_allocator_hooks", false)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return defaults(), fmt.Errorf("config: reading %s: %w", path, err)
				}
			}
		}
	}

	return Config{
		Path:              v.GetString("path"),
		CacheSize:         v.GetInt("cache_size"),
		UseAllocatorHooks: v.GetBool("use_allocator_hooks"),
	}, nil
}
