//go:build test

package scheduler

// maxPivotIterations is kept small under the test build tag so a resolver
// bug that fails to make progress fails fast instead of spinning through a
// million iterations before the test times out.
const maxPivotIterations = 1024
