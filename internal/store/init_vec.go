//go:build sqlite_vec && cgo

package store

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

func init() {
	// Registers sqlite-vec as an auto-loadable extension on every
	// connection the mattn/go-sqlite3 driver opens, including the
	// sibling vector database this package opens in vector_store.go.
	vec.Auto()
}
