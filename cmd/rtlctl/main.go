// Copyright 2024 The Go RTL Project Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command rtlctl is a one-shot operator tool over the rtl façade: it
// opens an RTL instance, performs a single operation, and exits. It is
// closer to nm(1)/objdump(1) than to a resident monitor shell.
package main

func main() {
	Execute()
}
