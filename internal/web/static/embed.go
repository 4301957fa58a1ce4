package static

import (
	_ "embed"
)

//go:embed index.html
var indexHTML []byte

// Index returns the page shell served at "/".
func Index() []byte {
	return indexHTML
}
