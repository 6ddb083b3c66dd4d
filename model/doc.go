// Package model is the per-process cache consumed by the user interfaces.
//
// A Model holds four independent observable cells (radio enabled, the
// connected network, the last scan and the saved networks). Its methods
// never block: each one queues a task on a small worker pool, the task
// talks to a wireless.Controller, and its outcome is delivered back as a
// message to the apply loop started by Run. Failed refreshes leave the
// previous values in place. Consumers redraw when Changed fires or when
// Hash moves.
package model
