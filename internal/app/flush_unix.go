//go:build !windows

package app

func flushInput() error { return nil }
