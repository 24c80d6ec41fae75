// Package blocks defines the block-indexed address space the scheduler and
// simulator operate over: the block index type and the cache-buffer
// sentinel.
package blocks

import "math"

// Index identifies a flash block by its position in the address space
// (address >> BlockSizeBit).
type Index uint64

// CacheBuf is the reserved index denoting the single RAM cache buffer rather
// than a real flash block. A real block index is always below
// FlashSize/BlockSize, which stays far below this sentinel for any
// FlashSizeBit the scheduler accepts (see move.Config).
const CacheBuf Index = math.MaxUint64
