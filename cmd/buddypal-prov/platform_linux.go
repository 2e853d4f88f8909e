//go:build linux

package main

import (
	"log/slog"
	"os"
	"syscall"

	"github.com/buddypal/wifiprov/pkg/bleprov"
)

func hardwarePlatform(logger *slog.Logger) (bleprov.Platform, func() error, error) {
	p := bleprov.NewTinyGoPlatform(logger)
	return p, func() error { p.Close(); return nil }, nil
}

// reexec replaces the process with a fresh copy of itself.
func reexec() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	return syscall.Exec(exe, os.Args, os.Environ())
}
