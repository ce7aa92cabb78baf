// Package conditions supplies the externally maintained channel-quality
// (bad-channel) map consumed by the QC engine. The engine queries a Provider
// lazily once per activity; a missing map is a recoverable condition, not an
// error that stops monitoring.
package conditions

import (
	"context"

	"github.com/banshee-data/calo.monitor/internal/geom"
)

// Provider returns the current bad-channel map, or an error when the
// condition is unavailable.
type Provider interface {
	BadChannels(ctx context.Context) (*BadChannelMap, error)
}

// BadChannelMap is a read-only-after-build bitset of flagged channels over
// the full address span.
type BadChannelMap struct {
	bits []uint64
	nBad int
}

// NewBadChannelMap returns a map with every channel good.
func NewBadChannelMap() *BadChannelMap {
	return &BadChannelMap{bits: make([]uint64, (geom.MaxChannel/64)+1)}
}

// MarkBad flags addr. Addresses outside the valid span are ignored.
func (m *BadChannelMap) MarkBad(addr int) {
	if addr < geom.MinChannel || addr > geom.MaxChannel {
		return
	}
	word, bit := addr/64, uint(addr%64)
	if m.bits[word]&(1<<bit) == 0 {
		m.bits[word] |= 1 << bit
		m.nBad++
	}
}

// IsChannelGood reports whether addr is unflagged. Addresses outside the
// valid span read as good so callers never count phantom channels.
func (m *BadChannelMap) IsChannelGood(addr int) bool {
	if addr < geom.MinChannel || addr > geom.MaxChannel {
		return true
	}
	return m.bits[addr/64]&(1<<uint(addr%64)) == 0
}

// NumBad returns the number of flagged channels.
func (m *BadChannelMap) NumBad() int { return m.nBad }

// StaticProvider serves a fixed map or a fixed error. Used in tests and for
// file-fed replay runs.
type StaticProvider struct {
	Map *BadChannelMap
	Err error
}

// BadChannels implements Provider.
func (p *StaticProvider) BadChannels(ctx context.Context) (*BadChannelMap, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Map, nil
}
