package clock

// Slot holds at most one live scheduled activity (a drive, a charge, a blind
// transition). It is not safe for concurrent use: the owner guards it with
// the same mutex that protects the state the activity mutates.
//
// Every Arm bumps a generation counter. A callback captures the generation it
// was armed with and checks Owns before touching state, so a callback that
// was already queued when it got superseded or cancelled becomes a no-op.
type Slot struct {
	gen    uint64
	handle Handle
}

// Arm cancels any live activity and starts a new one.
func (s *Slot) Arm(start func(gen uint64) Handle) uint64 {
	s.Cancel()
	s.gen++
	gen := s.gen
	s.handle = start(gen)
	return gen
}

// Owns reports whether gen is the live activity.
func (s *Slot) Owns(gen uint64) bool {
	return s.handle != nil && s.gen == gen
}

// Release ends the activity armed as gen, typically from its own callback.
func (s *Slot) Release(gen uint64) bool {
	if !s.Owns(gen) {
		return false
	}
	s.handle.Cancel()
	s.handle = nil
	return true
}

// Cancel ends the live activity, if any.
func (s *Slot) Cancel() bool {
	if s.handle == nil {
		return false
	}
	s.handle.Cancel()
	s.handle = nil
	s.gen++
	return true
}

func (s *Slot) Live() bool {
	return s.handle != nil
}
