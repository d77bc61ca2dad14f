// Package highlight draws resolved match rectangles on transparent overlays
// layered over rendered pages.
//
// Key Types:
//   - Overlay: a clearable surface rectangles are painted on
//   - Canvas: an Overlay backed by an *image.RGBA
//   - Renderer: the crossfade state machine (none, fadingIn, steady)
//   - Scheduler: timer source, replaced by a fake in tests
//
// Every draw cycle clears each attached overlay and redraws it from state.
// A new highlight set fades in at 40% opacity over the previous set at 30%,
// after 50ms the previous set drops to 15% and the new one rises to 80%, and
// after 300ms the previous set is discarded.
package highlight
