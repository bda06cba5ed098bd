//go:build !unix

package main

import "errors"

func openFilesLimit() (uint64, error) {
	return 0, errors.New("open files limit is not available")
}
