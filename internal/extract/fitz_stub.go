//go:build !cgo
// +build !cgo

package extract

import "fmt"

// OpenPDF returns an error when built without CGO (MuPDF not available).
// The text-only path still works via the pure-Go PDF reader.
func OpenPDF(path string) (PageRenderer, error) {
	return nil, fmt.Errorf("page rendering requires CGO (MuPDF); use text-only extraction")
}
