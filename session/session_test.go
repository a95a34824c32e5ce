package session

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"

	"github.com/easelhq/easel/canvas"
	"github.com/easelhq/easel/errors"
	"github.com/easelhq/easel/event"
)

// fakeGuest scripts a guest instance. The onRun and onStop callbacks run
// inside Run and Stop the way compiled guests call back into the host
// mid-call.
type fakeGuest struct {
	name   string
	runs   int
	stops  int
	closes int
	exited bool

	runErr   error
	stopErr  error
	eventErr error
	frameErr error

	onRun  func(ctx context.Context)
	onStop func(ctx context.Context)

	pointers []pointerCall
	keys     []string
	inputs   [][2]string
	frames   []float64
}

type pointerCall struct {
	name string
	x, y float64
}

var _ Guest = (*fakeGuest)(nil)

func (g *fakeGuest) Run(ctx context.Context) error {
	g.runs++
	if g.onRun != nil {
		g.onRun(ctx)
	}
	return g.runErr
}

func (g *fakeGuest) Stop(ctx context.Context) error {
	g.stops++
	if g.onStop != nil {
		g.onStop(ctx)
	}
	return g.stopErr
}

func (g *fakeGuest) Close(ctx context.Context) error {
	g.closes++
	return nil
}

func (g *fakeGuest) Exited() bool        { return g.exited }
func (g *fakeGuest) Name() string        { return g.name }
func (g *fakeGuest) MemoryBytes() uint32 { return 65536 }

func (g *fakeGuest) PointerDown(ctx context.Context, x, y float64) error {
	g.pointers = append(g.pointers, pointerCall{"down", x, y})
	return g.eventErr
}

func (g *fakeGuest) PointerUp(ctx context.Context, x, y float64) error {
	g.pointers = append(g.pointers, pointerCall{"up", x, y})
	return g.eventErr
}

func (g *fakeGuest) PointerMove(ctx context.Context, x, y float64) error {
	g.pointers = append(g.pointers, pointerCall{"move", x, y})
	return g.eventErr
}

func (g *fakeGuest) Key(ctx context.Context, name string) error {
	g.keys = append(g.keys, name)
	return g.eventErr
}

func (g *fakeGuest) Input(ctx context.Context, id, value string) error {
	g.inputs = append(g.inputs, [2]string{id, value})
	return g.eventErr
}

func (g *fakeGuest) AnimationFrame(ctx context.Context, elapsedMs float64) error {
	g.frames = append(g.frames, elapsedMs)
	return g.frameErr
}

// fakeLauncher hands out scripted guests in order, minting blank ones
// when the script runs dry.
type fakeLauncher struct {
	guests []*fakeGuest
	next   int
	err    error
}

func (l *fakeLauncher) Instantiate(ctx context.Context) (Guest, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.next >= len(l.guests) {
		l.guests = append(l.guests, &fakeGuest{name: fmt.Sprintf("fake-%d", l.next)})
	}
	g := l.guests[l.next]
	l.next++
	return g, nil
}

// recordingSurface counts primitives; these tests only need to see that
// drawing reached the surface.
type recordingSurface struct {
	clears  int
	lines   int
	rects   int
	circles int
}

var _ canvas.Surface = (*recordingSurface)(nil)

func (r *recordingSurface) Clear()                            { r.clears++ }
func (r *recordingSurface) SetStroke(c canvas.Color)          {}
func (r *recordingSurface) SetFill(c canvas.Color)            {}
func (r *recordingSurface) SetStrokeWidth(w float64)          {}
func (r *recordingSurface) StrokeLine(x1, y1, x2, y2 float64) { r.lines++ }
func (r *recordingSurface) FillRect(x, y, w, h float64)       { r.rects++ }
func (r *recordingSurface) FillCircle(cx, cy, rad float64)    { r.circles++ }

// manualClock queues tick callbacks for explicit delivery.
type manualClock struct {
	queue []func(timestampMs float64)
}

func (c *manualClock) RequestTick(fn func(timestampMs float64)) {
	c.queue = append(c.queue, fn)
}

func (c *manualClock) fire(t *testing.T, ts float64) {
	t.Helper()
	if len(c.queue) == 0 {
		t.Fatal("no tick pending")
	}
	fn := c.queue[0]
	c.queue = c.queue[1:]
	fn(ts)
}

type fakeControls struct {
	shows int
	hides int
}

func (c *fakeControls) ShowInputControls() { c.shows++ }
func (c *fakeControls) HideInputControls() { c.hides++ }

type testEnv struct {
	session  *Session
	launcher *fakeLauncher
	surface  *recordingSurface
	clock    *manualClock
	controls *fakeControls
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		launcher: &fakeLauncher{},
		surface:  &recordingSurface{},
		clock:    &manualClock{},
		controls: &fakeControls{},
	}
	cv := canvas.New(canvas.DefaultTransform(), env.surface, nil)
	s, err := New(Options{
		Launcher: env.launcher,
		Canvas:   cv,
		Clock:    env.clock,
		Controls: env.controls,
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	env.session = s
	return env
}

// guest returns the n-th instantiated fake.
func (e *testEnv) guest(t *testing.T, n int) *fakeGuest {
	t.Helper()
	if n >= len(e.launcher.guests) {
		t.Fatalf("guest %d never instantiated", n)
	}
	return e.launcher.guests[n]
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewRequiresLauncherAndCanvas(t *testing.T) {
	surf := &recordingSurface{}
	cv := canvas.New(canvas.DefaultTransform(), surf, nil)
	if _, err := New(Options{Canvas: cv}); err == nil {
		t.Error("New without a launcher must fail")
	}
	if _, err := New(Options{Launcher: &fakeLauncher{}}); err == nil {
		t.Error("New without a canvas must fail")
	}
}

func TestStartRunsEntryAndClearsState(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	var states []bool
	s.SetRunListener(func(r bool) { states = append(states, r) })
	var echoed string
	s.SetOutputListener(func(text string) { echoed += text })

	g := &fakeGuest{name: "sketch"}
	g.onRun = func(ctx context.Context) {
		s.WriteOutput("hello from sketch\n")
	}
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !s.Running() {
		t.Fatal("session must be running after Start")
	}
	if g.runs != 1 {
		t.Fatalf("entry invoked %d times, want 1", g.runs)
	}
	if got := s.Output(); got != "hello from sketch\n" {
		t.Errorf("Output() = %q, want the guest's text", got)
	}
	if echoed != "hello from sketch\n" {
		t.Errorf("output listener saw %q", echoed)
	}
	if env.surface.clears == 0 {
		t.Error("Start must clear the canvas")
	}
	if diff := cmp.Diff([]bool{true}, states); diff != "" {
		t.Errorf("run listener mismatch (-want +got):\n%s", diff)
	}
}

func TestStartWhileRunningRejected(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	err := s.Start(context.Background())
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindAlreadyRunning {
		t.Fatalf("second Start() = %v, want an already-running error", err)
	}
	if env.launcher.next != 1 {
		t.Errorf("second Start must not instantiate, launches = %d", env.launcher.next)
	}
	if !s.Running() {
		t.Error("original run must survive the rejected Start")
	}
}

func TestStartInstantiationFailureLeavesIdle(t *testing.T) {
	env := newTestEnv(t)
	env.launcher.err = errors.Transport("fetch bytecode", nil)

	var states []bool
	env.session.SetRunListener(func(r bool) { states = append(states, r) })

	if err := env.session.Start(context.Background()); err == nil {
		t.Fatal("Start() must surface the launch failure")
	}
	if env.session.Running() {
		t.Error("session must stay idle when no instance was created")
	}
	if len(states) != 0 {
		t.Errorf("run listener fired %v for a failed launch", states)
	}
}

func TestEntryFaultTearsDown(t *testing.T) {
	env := newTestEnv(t)
	g := &fakeGuest{runErr: errors.GuestFault(errors.PhaseRuntime, "main", nil)}
	env.launcher.guests = []*fakeGuest{g}

	err := env.session.Start(context.Background())
	if !errors.IsFatal(err) {
		t.Fatalf("Start() = %v, want a fatal fault", err)
	}
	if env.session.Running() {
		t.Error("faulted run must end")
	}
	if g.closes != 1 {
		t.Errorf("guest closed %d times, want 1", g.closes)
	}
}

func TestStopThroughGuestCallback(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	g := &fakeGuest{}
	g.onStop = func(ctx context.Context) { s.SessionEnded(ctx) }
	env.launcher.guests = []*fakeGuest{g}

	var states []bool
	s.SetRunListener(func(r bool) { states = append(states, r) })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if s.Running() {
		t.Error("session must be idle after Stop")
	}
	if g.stops != 1 {
		t.Errorf("stop export invoked %d times, want 1", g.stops)
	}
	if g.closes != 1 {
		t.Errorf("guest closed %d times, want exactly 1", g.closes)
	}
	if diff := cmp.Diff([]bool{true, false}, states); diff != "" {
		t.Errorf("run listener mismatch (-want +got):\n%s", diff)
	}
}

func TestStopWithoutCallbackStillTearsDown(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	// A guest whose stop export returns without calling onSessionEnd.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	g := env.guest(t, 0)
	if s.Running() || g.closes != 1 {
		t.Errorf("forced teardown failed: running=%v closes=%d", s.Running(), g.closes)
	}
}

func TestStopOnIdleSession(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	var states []bool
	s.SetRunListener(func(r bool) { states = append(states, r) })

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() on idle session = %v, want nil", err)
	}
	if env.launcher.next != 0 {
		t.Error("idle Stop must not touch the launcher")
	}
	if len(states) != 0 {
		t.Errorf("run listener fired %v for an idle Stop", states)
	}
}

func TestTeardownIdempotent(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	var states []bool
	s.SetRunListener(func(r bool) { states = append(states, r) })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	// Extra teardowns from any path must be no-ops.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop() error: %v", err)
	}
	s.SessionEnded(context.Background())

	g := env.guest(t, 0)
	if g.closes != 1 {
		t.Errorf("guest closed %d times, want exactly 1", g.closes)
	}
	if diff := cmp.Diff([]bool{true, false}, states); diff != "" {
		t.Errorf("run listener mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterAndDeliverPointer(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) {
		if err := s.RegisterEvents(ctx, "pointerDown"); err != nil {
			t.Errorf("RegisterEvents(pointerDown) error: %v", err)
		}
	}
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	ev := event.PointerEvent{X: 250, Y: 100, ClientW: 500, ClientH: 500}
	if err := s.Pointer(context.Background(), event.KindPointerDown, ev); err != nil {
		t.Fatalf("Pointer() error: %v", err)
	}
	if len(g.pointers) != 1 {
		t.Fatalf("guest saw %d pointer events, want 1", len(g.pointers))
	}
	got := g.pointers[0]
	if got.name != "down" || !closeTo(got.x, 50) || !closeTo(got.y, 80) {
		t.Errorf("delivered %s(%v, %v), want down(50, 80)", got.name, got.x, got.y)
	}

	// Unregistered kinds stay silent.
	if err := s.Pointer(context.Background(), event.KindPointerMove, ev); err != nil {
		t.Fatalf("Pointer(move) error: %v", err)
	}
	if len(g.pointers) != 1 {
		t.Errorf("unarmed pointerMove reached the guest")
	}
}

func TestDeliveriesDroppedWhileIdle(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	ev := event.PointerEvent{X: 10, Y: 10, ClientW: 1000, ClientH: 1000}
	if err := s.Pointer(context.Background(), event.KindPointerDown, ev); err != nil {
		t.Fatalf("idle Pointer() = %v, want nil", err)
	}
	if err := s.Key(context.Background(), event.KeyEvent{Name: "a"}); err != nil {
		t.Fatalf("idle Key() = %v, want nil", err)
	}
	if err := s.Input(context.Background(), "size", "3"); err != nil {
		t.Fatalf("idle Input() = %v, want nil", err)
	}

	// Same once a run has ended: the old guest is unreachable.
	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) { _ = s.RegisterEvents(ctx, "pointerDown") }
	env.launcher.guests = []*fakeGuest{g}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := s.Pointer(context.Background(), event.KindPointerDown, ev); err != nil {
		t.Fatalf("post-stop Pointer() = %v, want nil", err)
	}
	if len(g.pointers) != 0 {
		t.Errorf("stopped guest received %v", g.pointers)
	}
}

func TestUnknownRegistrationKeepsRunning(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	var regErr error
	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) {
		regErr = s.RegisterEvents(ctx, "resize")
	}
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	e, ok := regErr.(*errors.Error)
	if !ok || e.Kind != errors.KindRegistration {
		t.Fatalf("RegisterEvents(resize) = %v, want a registration error", regErr)
	}
	if !s.Running() {
		t.Error("a rejected registration must not end the run")
	}
}

func TestFatalDeliveryEndsRun(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	g := &fakeGuest{eventErr: errors.GuestFault(errors.PhaseRuntime, "onPointerDown", nil)}
	g.onRun = func(ctx context.Context) { _ = s.RegisterEvents(ctx, "pointerDown") }
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	ev := event.PointerEvent{X: 0, Y: 0, ClientW: 1000, ClientH: 1000}
	err := s.Pointer(context.Background(), event.KindPointerDown, ev)
	if !errors.IsFatal(err) {
		t.Fatalf("Pointer() = %v, want a fatal fault", err)
	}
	if s.Running() {
		t.Error("faulted delivery must end the run")
	}
	if g.closes != 1 {
		t.Errorf("guest closed %d times, want 1", g.closes)
	}
}

func TestHostFaultAbortsAtUnwind(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	fault := errors.OutOfBounds(4096, 16)
	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) {
		// A host call that failed to marshal records the fault and
		// returns benignly; the run dies when the entry unwinds.
		s.Fault(fault)
		s.WriteOutput("still alive\n")
	}
	env.launcher.guests = []*fakeGuest{g}

	err := s.Start(context.Background())
	if err != fault {
		t.Fatalf("Start() = %v, want the recorded fault", err)
	}
	if s.Running() {
		t.Error("faulted run must end at unwind")
	}
	if s.Output() != "still alive\n" {
		t.Errorf("Output() = %q, want the pre-fault transcript intact", s.Output())
	}
}

func TestGuestExitRetiresRun(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	var states []bool
	s.SetRunListener(func(r bool) { states = append(states, r) })

	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) { g.exited = true }
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() after clean exit = %v, want nil", err)
	}
	if s.Running() {
		t.Error("an exited guest cannot keep a run alive")
	}
	if g.closes != 1 {
		t.Errorf("guest closed %d times, want 1", g.closes)
	}
	if diff := cmp.Diff([]bool{true, false}, states); diff != "" {
		t.Errorf("run listener mismatch (-want +got):\n%s", diff)
	}
}

func TestAnimationLoop(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) { _ = s.RegisterEvents(ctx, "animate") }
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if len(env.clock.queue) != 1 {
		t.Fatalf("animate registration queued %d ticks, want 1", len(env.clock.queue))
	}

	env.clock.fire(t, 1000)
	env.clock.fire(t, 1016.7)

	want := []float64{0, 16.7}
	if diff := cmp.Diff(want, g.frames, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("frame timestamps mismatch (-want +got):\n%s", diff)
	}

	// Stop leaves at most the already-queued tick, and that tick must
	// not reach the guest.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if len(env.clock.queue) != 1 {
		t.Fatalf("%d ticks pending after Stop, want the single stale one", len(env.clock.queue))
	}
	env.clock.fire(t, 2000)
	if len(g.frames) != 2 {
		t.Errorf("stale tick delivered a frame: %v", g.frames)
	}
	if len(env.clock.queue) != 0 {
		t.Error("stale tick must not reschedule")
	}
}

func TestFrameFaultEndsRun(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	g := &fakeGuest{frameErr: errors.GuestFault(errors.PhaseRuntime, "onAnimationFrame", nil)}
	g.onRun = func(ctx context.Context) { _ = s.RegisterEvents(ctx, "animate") }
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	env.clock.fire(t, 500)

	if s.Running() {
		t.Error("frame fault must end the run")
	}
	if g.closes != 1 {
		t.Errorf("guest closed %d times, want 1", g.closes)
	}
	if len(env.clock.queue) != 0 {
		t.Error("faulted loop must not reschedule")
	}
}

func TestTextInputControls(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) { _ = s.RegisterEvents(ctx, "textInput") }
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if env.controls.shows != 1 {
		t.Errorf("controls shown %d times, want 1", env.controls.shows)
	}
	if err := s.Input(context.Background(), "size", "42"); err != nil {
		t.Fatalf("Input() error: %v", err)
	}
	if diff := cmp.Diff([][2]string{{"size", "42"}}, g.inputs); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if env.controls.hides == 0 {
		t.Error("teardown must hide the input controls")
	}
}

func TestKeyDelivery(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) { _ = s.RegisterEvents(ctx, "key") }
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Key(context.Background(), event.KeyEvent{Name: "ArrowUp", EditorFocus: true}); err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	if err := s.Key(context.Background(), event.KeyEvent{Name: "ArrowDown"}); err != nil {
		t.Fatalf("Key() error: %v", err)
	}
	if diff := cmp.Diff([]string{"ArrowDown"}, g.keys); diff != "" {
		t.Errorf("editor-focused key leaked (-want +got):\n%s", diff)
	}
}

func TestReadLineHostCall(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	if _, ok := s.ReadLine(); ok {
		t.Fatal("ReadLine with no input must report not-ready")
	}
	s.SubmitInput("first")
	if _, ok := s.ReadLine(); ok {
		t.Fatal("a partial line must report not-ready")
	}
	s.SubmitInput(" line\nsecond\n")
	line, ok := s.ReadLine()
	if !ok || line != "first line" {
		t.Fatalf("ReadLine() = (%q, %v), want (%q, true)", line, ok, "first line")
	}
	line, ok = s.ReadLine()
	if !ok || line != "second" {
		t.Fatalf("ReadLine() = (%q, %v), want (%q, true)", line, ok, "second")
	}
	if _, ok := s.ReadLine(); ok {
		t.Fatal("drained buffer must report not-ready")
	}
}

func TestSourceRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	var seen []string
	s.SetSourceListener(func(text string) { seen = append(seen, text) })

	s.LoadSource("sketch v1")
	if s.SourceText() != "sketch v1" {
		t.Errorf("SourceText() = %q after LoadSource", s.SourceText())
	}
	// The guest replacing the editor text goes through the same path.
	s.SetSourceText("sketch v2")
	if s.Source() != "sketch v2" {
		t.Errorf("Source() = %q after SetSourceText", s.Source())
	}
	if diff := cmp.Diff([]string{"sketch v1", "sketch v2"}, seen); diff != "" {
		t.Errorf("source listener mismatch (-want +got):\n%s", diff)
	}
}

func TestClearOutputAndRender(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	s.WriteOutput("leftover\n")
	clearsBefore := env.surface.clears
	s.ClearOutputAndRender()
	if s.Output() != "" {
		t.Errorf("Output() = %q after clear", s.Output())
	}
	if env.surface.clears != clearsBefore+1 {
		t.Error("clear must reset the canvas")
	}
}

func TestDrawingHostCalls(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	g := &fakeGuest{}
	g.onRun = func(ctx context.Context) {
		s.SetColor("red")
		s.SetLineWidth(2)
		s.Move(10, 10)
		s.Line(20, 20)
		s.Circle(5)
		s.FillRect(30, -10)
	}
	env.launcher.guests = []*fakeGuest{g}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if env.surface.lines != 1 || env.surface.circles != 1 || env.surface.rects != 1 {
		t.Errorf("surface saw lines=%d circles=%d rects=%d, want 1 each",
			env.surface.lines, env.surface.circles, env.surface.rects)
	}
}

func TestSessionReusable(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	first := &fakeGuest{name: "first"}
	first.onRun = func(ctx context.Context) { _ = s.RegisterEvents(ctx, "pointerDown") }
	first.onStop = func(ctx context.Context) { s.SessionEnded(ctx) }
	second := &fakeGuest{name: "second"}
	second.onRun = func(ctx context.Context) { _ = s.RegisterEvents(ctx, "pointerDown") }
	env.launcher.guests = []*fakeGuest{first, second}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("first Start() error: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	if env.launcher.next != 2 {
		t.Fatalf("launcher used %d times, want 2", env.launcher.next)
	}
	if second.runs != 1 {
		t.Errorf("second guest ran %d times, want 1", second.runs)
	}

	// Input lands on the new run only.
	ev := event.PointerEvent{X: 500, Y: 500, ClientW: 1000, ClientH: 1000}
	if err := s.Pointer(context.Background(), event.KindPointerDown, ev); err != nil {
		t.Fatalf("Pointer() error: %v", err)
	}
	if len(first.pointers) != 0 {
		t.Errorf("retired guest received %v", first.pointers)
	}
	if len(second.pointers) != 1 {
		t.Errorf("current guest saw %d pointer events, want 1", len(second.pointers))
	}
}

func TestSetLauncherWhileRunningRejected(t *testing.T) {
	env := newTestEnv(t)
	s := env.session

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	err := s.SetLauncher(&fakeLauncher{})
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindAlreadyRunning {
		t.Fatalf("SetLauncher while running = %v, want an already-running error", err)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	replacement := &fakeLauncher{}
	if err := s.SetLauncher(replacement); err != nil {
		t.Fatalf("SetLauncher while idle = %v, want nil", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() after swap error: %v", err)
	}
	if replacement.next != 1 {
		t.Errorf("swapped launcher used %d times, want 1", replacement.next)
	}
}
