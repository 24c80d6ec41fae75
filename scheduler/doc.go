// Package scheduler turns a list of block-aligned moves into an ordered VM
// instruction stream that performs them in place on block-erasable flash
// with a single RAM cache buffer.
package scheduler
