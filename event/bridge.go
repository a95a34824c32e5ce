package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/easelhq/easel/canvas"
	"github.com/easelhq/easel/errors"
)

// Guest is the set of guest callbacks device input is delivered into. The
// engine's guest instance implements it; string arguments are marshalled
// into guest memory there.
type Guest interface {
	PointerDown(ctx context.Context, x, y float64) error
	PointerUp(ctx context.Context, x, y float64) error
	PointerMove(ctx context.Context, x, y float64) error
	Key(ctx context.Context, name string) error
	Input(ctx context.Context, id, value string) error
	AnimationFrame(ctx context.Context, elapsedMs float64) error
}

// Controls shows and hides the slider/text-input widgets owned by the front
// end. Both operations must be idempotent.
type Controls interface {
	ShowInputControls()
	HideInputControls()
}

// NopControls is a Controls that does nothing, for front ends without input
// widgets.
type NopControls struct{}

func (NopControls) ShowInputControls() {}
func (NopControls) HideInputControls() {}

// PointerEvent is a pointer action in surface coordinates. X and Y are the
// offset within the rendered surface; ClientW and ClientH are the rendered
// size, which may differ from the surface's physical pixel size.
type PointerEvent struct {
	X, Y             float64
	ClientW, ClientH float64
}

// KeyEvent is a keystroke. EditorFocus marks keys owned by the source
// editor; those are never forwarded to the guest.
type KeyEvent struct {
	Name        string
	EditorFocus bool
}

// registration pairs the install and remove actions for one kind.
type registration struct {
	install func(ctx context.Context)
	remove  func()
}

// Bridge routes device input to the callbacks a running guest registered
// for. Kinds are armed by Register and disarmed by RemoveAll; deliveries
// for unarmed kinds are dropped. Pointer offsets are converted to logical
// coordinates with the transform's client-size correction before delivery.
//
// A Bridge belongs to one run: it is built with that run's guest instance
// and discarded at teardown. It is confined to the driver goroutine.
type Bridge struct {
	guest     Guest
	transform canvas.Transform
	controls  Controls
	scheduler *Scheduler
	logger    *zap.Logger

	table map[Kind]registration
	armed map[Kind]bool
}

// NewBridge builds a bridge delivering into guest. t converts pointer
// offsets; controls may be nil when the front end has no input widgets; the
// scheduler is started and stopped by animate registrations. A nil logger
// disables logging.
func NewBridge(guest Guest, t canvas.Transform, controls Controls, scheduler *Scheduler, logger *zap.Logger) *Bridge {
	if controls == nil {
		controls = NopControls{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bridge{
		guest:     guest,
		transform: t,
		controls:  controls,
		scheduler: scheduler,
		logger:    logger,
		armed:     make(map[Kind]bool),
	}
	b.table = map[Kind]registration{
		KindPointerDown: b.arming(KindPointerDown),
		KindPointerUp:   b.arming(KindPointerUp),
		KindPointerMove: b.arming(KindPointerMove),
		KindKey:         b.arming(KindKey),
		KindTextInput: {
			install: func(context.Context) {
				b.controls.ShowInputControls()
				b.armed[KindTextInput] = true
			},
			remove: func() {
				b.controls.HideInputControls()
				delete(b.armed, KindTextInput)
			},
		},
		KindAnimate: {
			install: func(ctx context.Context) {
				b.scheduler.Start(ctx)
				b.armed[KindAnimate] = true
			},
			remove: func() {
				b.scheduler.Stop()
				delete(b.armed, KindAnimate)
			},
		},
	}
	return b
}

// arming is the registration for kinds whose install action is only to arm
// delivery.
func (b *Bridge) arming(kind Kind) registration {
	return registration{
		install: func(context.Context) { b.armed[kind] = true },
		remove:  func() { delete(b.armed, kind) },
	}
}

// Register arms the named kind. Unknown names produce a registration error
// and arm nothing; other registrations are unaffected. Re-registering an
// armed kind has no effect.
func (b *Bridge) Register(ctx context.Context, name string) error {
	kind, ok := ParseKind(name)
	if !ok {
		b.logger.Warn("unknown event kind requested", zap.String("kind", name))
		return errors.Registration(name)
	}
	if b.armed[kind] {
		return nil
	}
	b.table[kind].install(ctx)
	return nil
}

// RemoveAll disarms every kind, stops the animation loop and hides the
// input controls. It runs over the whole table unconditionally, is
// idempotent, and is always invoked on session teardown.
func (b *Bridge) RemoveAll() {
	for _, kind := range kinds {
		b.table[kind].remove()
	}
}

// Armed reports whether the kind is currently registered.
func (b *Bridge) Armed(kind Kind) bool {
	return b.armed[kind]
}

// Pointer delivers a pointer event of the given kind. The surface offset is
// converted to logical coordinates using the client-rendered size. Dropped
// when the kind is not armed.
func (b *Bridge) Pointer(ctx context.Context, kind Kind, ev PointerEvent) error {
	if !b.armed[kind] {
		return nil
	}
	p := b.transform.ToLogical(ev.X, ev.Y, ev.ClientW, ev.ClientH)
	switch kind {
	case KindPointerDown:
		return b.guest.PointerDown(ctx, p.X, p.Y)
	case KindPointerUp:
		return b.guest.PointerUp(ctx, p.X, p.Y)
	case KindPointerMove:
		return b.guest.PointerMove(ctx, p.X, p.Y)
	}
	return nil
}

// Key delivers a keystroke. Keys are dropped while the editor owns focus
// and when the key kind is not armed.
func (b *Bridge) Key(ctx context.Context, ev KeyEvent) error {
	if ev.EditorFocus || !b.armed[KindKey] {
		return nil
	}
	return b.guest.Key(ctx, ev.Name)
}

// Input delivers a control change as an id/value pair. Dropped unless
// textInput is armed.
func (b *Bridge) Input(ctx context.Context, id, value string) error {
	if !b.armed[KindTextInput] {
		return nil
	}
	return b.guest.Input(ctx, id, value)
}
