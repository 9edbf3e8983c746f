// Package sequence issues the request numbers that decide which in-flight
// response of a lane may update visible state.
package sequence

import "sync/atomic"

// Sequencer provides monotonically increasing sequence numbers.
type Sequencer struct{ n atomic.Uint64 }

// Next returns the next sequence number. The first call returns 1.
func (s *Sequencer) Next() uint64 { return s.n.Add(1) }

// Current returns the highest number issued so far, 0 if none.
func (s *Sequencer) Current() uint64 { return s.n.Load() }

// IsLatest reports whether seq is the highest number issued so far.
func (s *Sequencer) IsLatest(seq uint64) bool { return seq != 0 && seq == s.n.Load() }
