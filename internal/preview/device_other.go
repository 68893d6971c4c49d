//go:build !unix

package preview

func deviceNumbers(string) (string, bool) { return "", false }
