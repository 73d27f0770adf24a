//go:build !linux

package engine

import "os"

func advise(*os.File) {}
