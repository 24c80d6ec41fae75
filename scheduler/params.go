//go:build !test

package scheduler

// maxPivotIterations bounds how many cycle-breaking pivots resolve will
// attempt before concluding something is wrong rather than looping forever.
// Each pivot strictly removes at least one node from the stalled residue, so
// a correct run never needs more pivots than there are blocks; this is a
// generous multiple of a realistic block count, set high since production
// images may touch many thousands of blocks.
const maxPivotIterations = 1 << 20
