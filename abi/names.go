package abi

// HostModule is the import namespace the guest links host functions from.
const HostModule = "easel"

// Host function export names, callable by the guest. These names are the
// contract compiled sketches depend on.
const (
	HostWriteOutput     = "writeOutput"
	HostReadLine        = "readLine"
	HostGetSourceText   = "getSourceText"
	HostSetSourceText   = "setSourceText"
	HostMove            = "move"
	HostLine            = "line"
	HostSetLineWidth    = "setLineWidth"
	HostCircle          = "circle"
	HostFillRect        = "fillRect"
	HostSetColor        = "setColor"
	HostOnSessionEnd    = "onSessionEnd"
	HostRegisterHandler = "registerEventHandler"
)

// Guest export names, callable by the host.
const (
	GuestStop           = "stop"
	GuestPointerDown    = "onPointerDown"
	GuestPointerUp      = "onPointerUp"
	GuestPointerMove    = "onPointerMove"
	GuestKey            = "onKey"
	GuestInput          = "onInput"
	GuestAnimationFrame = "onAnimationFrame"
)

// EntryPoints lists the guest entry-point exports, tried in order.
var EntryPoints = []string{"main", "run", "_start"}

// AllocatorNames lists the guest allocator exports, tried in order.
// Toolchains disagree on the name; both take a byte count and return a
// pointer.
var AllocatorNames = []string{"alloc", "malloc"}
