package engine_test

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures no goroutine from the reader/reporter pipeline
// outlives its run, including runs cut short by a failing sink.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
