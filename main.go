// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Capno - host-side driver for the multi-gas analysis sensor module.

package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/shamexln/capno/cmd"
)

func main() {
	defer glog.Flush()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
