//go:build !linux

package main

import (
	"errors"
	"log/slog"

	"github.com/buddypal/wifiprov/pkg/bleprov"
)

var errUnsupported = errors.New("hardware mode requires linux, use --simulate")

func hardwarePlatform(*slog.Logger) (bleprov.Platform, func() error, error) {
	return nil, nil, errUnsupported
}

func reexec() error {
	return errUnsupported
}
