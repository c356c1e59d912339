// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elf

import "github.com/go-rtl/rtl/cache"

func newTestCacheSet() *cache.Set {
	return cache.NewSet(cache.DefaultSize)
}
