//go:build windows

package storage

import "os"

// Windows builds only get the in-process mutex.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
