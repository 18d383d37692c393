// Package testing flips the service into test mode when blank-imported so
// package main does not start runtime side effects under `go test`.
package testing

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("IDENTITY_TEST_MODE") == "" {
			_ = os.Setenv("IDENTITY_TEST_MODE", "1")
		}
	})
}
