package intent

// Observer receives the notification payload for every transition that
// commits after its registration. No notification occurs on Subscribe
// itself; a new observer must read the initial state explicitly before
// relying on notifications.
type Observer func(Transition)

// registration keys an observer by registration event, not callback
// identity: subscribing the same func twice yields two independent
// registrations.
type registration struct {
	id uint64
	fn Observer
}

// Subscribe registers fn to run synchronously after every subsequent
// transition and returns its detachment handle.
//
// The handle removes exactly the one registration it corresponds to.
// It is idempotent: calling it twice, or after the Intent has undergone
// further transitions, is a no-op and never affects other registrations.
func (i *Intent) Subscribe(fn Observer) (cancel func()) {
	i.mu.Lock()
	i.nextReg++
	id := i.nextReg
	i.regs = append(i.regs, registration{id: id, fn: fn})
	i.mu.Unlock()

	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		for idx, reg := range i.regs {
			if reg.id == id {
				i.regs = append(i.regs[:idx], i.regs[idx+1:]...)
				return
			}
		}
	}
}

// ObserverCount returns the number of currently attached registrations.
func (i *Intent) ObserverCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.regs)
}
