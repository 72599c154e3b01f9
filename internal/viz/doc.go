// Package viz is the terminal live view of a running worker.
//
// It is built on Bubble Tea:
//
//   - [Model]: live view draining worker snapshots and sending commands
//   - [Canvas]: braille pixel canvas, exportable as GIF frames
//   - [Viewport]: world-to-pixel transform with spring-eased auto zoom
//   - [NewInteractiveApp]: scenario and solver picker in front of the live view
//
// The view never calls into the engine. Everything it draws comes from
// snapshots, and everything it changes goes through worker commands.
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the display
//	S     - Next scenario
//	V     - Next solver
//	R     - Rebuild the current scenario
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
package viz
