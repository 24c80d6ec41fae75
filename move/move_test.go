package move_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/flashplan/move"
)

func TestNewConfig(t *testing.T) {
	requireT := require.New(t)

	cfg, err := move.NewConfig(12, 20)
	requireT.NoError(err)
	requireT.EqualValues(0x1000, cfg.BlockSize())
	requireT.EqualValues(0xFFF, cfg.BlockMask())
	requireT.EqualValues(0x100000, cfg.FlashSize())

	_, err = move.NewConfig(7, 20)
	requireT.Error(err)

	_, err = move.NewConfig(12, 11)
	requireT.Error(err)

	_, err = move.NewConfig(20, 12)
	requireT.Error(err)
}

func TestBlockIndexAndOffset(t *testing.T) {
	assertT := assert.New(t)

	cfg, err := move.NewConfig(12, 20)
	require.NoError(t, err)

	assertT.EqualValues(0, cfg.BlockIndex(0))
	assertT.EqualValues(0, cfg.BlockIndex(0xFFF))
	assertT.EqualValues(1, cfg.BlockIndex(0x1000))
	assertT.EqualValues(0x100, cfg.BlockOffset(0x1100))
}

func TestValidate(t *testing.T) {
	requireT := require.New(t)

	cfg, err := move.NewConfig(12, 20)
	requireT.NoError(err)

	requireT.NoError(cfg.Validate(move.Move{SourceAddress: 0, Length: 10, DestinationAddress: 10}))

	requireT.Error(cfg.Validate(move.Move{SourceAddress: 0, Length: 0, DestinationAddress: 0}))
	requireT.Error(cfg.Validate(move.Move{SourceAddress: cfg.FlashSize(), Length: 1, DestinationAddress: 0}))
	requireT.Error(cfg.Validate(move.Move{SourceAddress: 0, Length: 1, DestinationAddress: cfg.FlashSize()}))
}
