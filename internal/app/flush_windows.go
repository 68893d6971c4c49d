//go:build windows

package app

import "golang.org/x/sys/windows"

// flushInput drops keystrokes typed into the console while the editor ran.
func flushInput() error {
	handle, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE)
	if err != nil {
		return err
	}
	return windows.FlushConsoleInputBuffer(handle)
}
