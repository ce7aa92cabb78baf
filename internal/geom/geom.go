// Package geom maps flat channel addresses onto the detector's
// (module, row, column) cell coordinates.
//
// The detector has four identical modules of 64 rows by 56 columns.
// Addresses are 1-based and contiguous: address-1 = module*3584 + row*56 + col.
// The first 1792 addresses belong to the uninstrumented half of module 1 and
// carry no readout, so per-channel scans (spectra, bad-channel counts) start
// at FirstReadoutChannel.
package geom

import "fmt"

const (
	// NumModules is the number of detector modules.
	NumModules = 4
	// RowsPerModule is the row extent of one module.
	RowsPerModule = 64
	// ColsPerModule is the column extent of one module.
	ColsPerModule = 56
	// ChannelsPerModule is the number of cells in one module.
	ChannelsPerModule = RowsPerModule * ColsPerModule // 3584

	// MinChannel and MaxChannel bound the valid address span.
	MinChannel = 1
	MaxChannel = NumModules * ChannelsPerModule // 14336

	// FirstReadoutChannel is the lowest instrumented address.
	FirstReadoutChannel = 1793
	// NumReadoutChannels is the count of instrumented channels.
	NumReadoutChannels = MaxChannel - FirstReadoutChannel + 1 // 12544
)

// CellID identifies one detector cell by module, row and column.
type CellID struct {
	Module int // [0, NumModules)
	Row    int // [0, RowsPerModule)
	Col    int // [0, ColsPerModule)
}

// OutOfRangeError reports a channel address outside the valid geometry.
type OutOfRangeError struct {
	Address int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("channel address %d outside valid span [%d, %d]", e.Address, MinChannel, MaxChannel)
}

// Decode converts a flat channel address into its cell coordinates.
// The mapping is total and injective over [MinChannel, MaxChannel];
// anything else fails with *OutOfRangeError.
func Decode(addr int) (CellID, error) {
	if addr < MinChannel || addr > MaxChannel {
		return CellID{}, &OutOfRangeError{Address: addr}
	}
	d := addr - 1
	return CellID{
		Module: d / ChannelsPerModule,
		Row:    (d % ChannelsPerModule) / ColsPerModule,
		Col:    d % ColsPerModule,
	}, nil
}

// Encode is the inverse of Decode.
func Encode(id CellID) (int, error) {
	if id.Module < 0 || id.Module >= NumModules ||
		id.Row < 0 || id.Row >= RowsPerModule ||
		id.Col < 0 || id.Col >= ColsPerModule {
		return 0, fmt.Errorf("cell %+v outside detector geometry", id)
	}
	return id.Module*ChannelsPerModule + id.Row*ColsPerModule + id.Col + 1, nil
}

// SpectrumIndex returns the dense per-readout-channel index for addr,
// used to key persistent per-channel spectra. Addresses below
// FirstReadoutChannel are not instrumented and fail with *OutOfRangeError.
func SpectrumIndex(addr int) (int, error) {
	if addr < FirstReadoutChannel || addr > MaxChannel {
		return 0, &OutOfRangeError{Address: addr}
	}
	return addr - FirstReadoutChannel, nil
}
