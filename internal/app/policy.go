package app

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickSubscriber
)

// Policy decides what happens to a subscriber whose outbound buffer was
// full during a publish.
type Policy interface {
	OnBackPressure(room string, subscriber string) BackpressureAction
}

// DropPolicy loses the one frame for the slow subscriber and moves on.
// Draw and chat relay is fire-and-forget, so this is the default.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(room string, subscriber string) BackpressureAction {
	return DropFrame
}
