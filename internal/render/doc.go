// Package render is the presentation boundary. Terminal shows the live
// message sequence, writing streaming deltas as they arrive and rendering
// finished assistant messages as markdown. HTML exports a transcript.
//
// Unterminated markdown (an open code fence, a half-written list) is not
// buffered: deltas are shown raw and only finished messages are rendered.
package render
