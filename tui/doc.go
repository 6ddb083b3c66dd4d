// Package tui implements the terminal dashboard for Wireless Manager.
//
// The dashboard is a bubbletea program over the reactive model. Key
// presses call model operations, which never block, and the model's
// change signal schedules a redraw. Saved networks and networks that are
// in range but unsaved are listed separately.
package tui
