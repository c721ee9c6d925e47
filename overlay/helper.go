package overlay

import "time"

// RefreshInterval is the delay between the end of one tick and the start of
// the next.
const RefreshInterval = 1000 * time.Millisecond

// Helper keeps a Surface's text in sync with a Provider.
//
// Start, Stop and Run must be called on the surface's event goroutine.
type Helper struct {
	provider Provider
	surface  Surface
}

// NewHelper binds provider to surface. Neither is owned by the Helper.
func NewHelper(provider Provider, surface Surface) *Helper {
	return &Helper{provider: provider, surface: surface}
}

// Start begins periodic refresh with an immediate tick. Calling Start while
// already running restarts the cadence without stacking a second schedule.
func (h *Helper) Start() {
	h.Stop()
	h.Run()
}

// Stop cancels the pending tick, if any.
func (h *Helper) Stop() {
	h.surface.RemoveCallbacks(h)
}

// Run performs one tick. A panic from the provider or surface leaves no tick
// scheduled.
func (h *Helper) Run() {
	h.surface.SetText(Render(h.provider))
	h.surface.PostDelayed(h, RefreshInterval)
}
