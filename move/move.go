// Package move defines the input contract of the scheduler: a byte-range
// move between an old and a new image, and the flash geometry it is
// interpreted against.
package move

import "github.com/pkg/errors"

// Move requests that Length bytes currently at SourceAddress in the old
// image end up at DestinationAddress in the new image.
type Move struct {
	SourceAddress      uint64
	Length             uint64
	DestinationAddress uint64
}

// Config carries the flash geometry the scheduler is built for. It is
// immutable for the lifetime of a Scheduler constructed with it: there is
// no package-level mutable geometry state, so distinct Scheduler values with
// distinct geometries may run concurrently.
type Config struct {
	// BlockSizeBit is the base-2 logarithm of the erase-block size.
	BlockSizeBit uint
	// FlashSizeBit is the base-2 logarithm of the addressable flash size.
	FlashSizeBit uint
}

// NewConfig validates and returns a Config.
func NewConfig(blockSizeBit, flashSizeBit uint) (Config, error) {
	if blockSizeBit < 8 || blockSizeBit > 20 {
		return Config{}, errors.Errorf("block size bit %d out of supported range [8, 20]", blockSizeBit)
	}
	if flashSizeBit < 12 || flashSizeBit > 40 {
		return Config{}, errors.Errorf("flash size bit %d out of supported range [12, 40]", flashSizeBit)
	}
	if flashSizeBit < blockSizeBit {
		return Config{}, errors.Errorf("flash size bit %d smaller than block size bit %d", flashSizeBit, blockSizeBit)
	}
	return Config{BlockSizeBit: blockSizeBit, FlashSizeBit: flashSizeBit}, nil
}

// BlockSize is the erase-block size in bytes.
func (c Config) BlockSize() uint64 {
	return uint64(1) << c.BlockSizeBit
}

// BlockMask is the bitmask selecting the in-block offset of an address.
func (c Config) BlockMask() uint64 {
	return c.BlockSize() - 1
}

// FlashSize is the total addressable flash size in bytes.
func (c Config) FlashSize() uint64 {
	return uint64(1) << c.FlashSizeBit
}

// BlockIndex returns the index of the block containing address.
func (c Config) BlockIndex(address uint64) uint64 {
	return address >> c.BlockSizeBit
}

// BlockOffset returns the in-block offset of address.
func (c Config) BlockOffset(address uint64) uint64 {
	return address & c.BlockMask()
}

// Validate checks that m lies entirely within the flash addressed by c and
// has a positive length.
func (c Config) Validate(m Move) error {
	if m.Length == 0 {
		return errors.New("move has zero length")
	}
	if m.SourceAddress+m.Length > c.FlashSize() {
		return errors.Errorf("source range [%d, %d) exceeds flash size %d",
			m.SourceAddress, m.SourceAddress+m.Length, c.FlashSize())
	}
	if m.DestinationAddress+m.Length > c.FlashSize() {
		return errors.Errorf("destination range [%d, %d) exceeds flash size %d",
			m.DestinationAddress, m.DestinationAddress+m.Length, c.FlashSize())
	}
	return nil
}
