// Package event turns terminal input and background channels into the single
// ordered message stream consumed by the greeter and onboard controllers.
//
// Bubble Tea already multiplexes keyboard, mouse and command results into one
// Update loop. This package adds the pieces the controllers share on top of
// it:
//
//   - Key: a normalized key event independent of the terminal backend
//   - FromTea: translation of tea.KeyMsg into zero or more Keys
//   - Tick: the periodic 250ms heartbeat used for clocks and animations
//   - Listen: a command that drains one message from a worker channel
//
// Controllers re-arm Listen after every delivered message so a channel is
// drained one message per Update call, in order.
package event
