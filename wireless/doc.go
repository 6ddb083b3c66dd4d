// Package wireless implements the wireless control operations on top of
// the NetworkManager bus adapter.
//
// Client is stateless: every operation is one request/response against the
// network service and none of them retry. Failures are returned as *Error
// whose Kind distinguishes an unreachable service (common.ErrTransport) from
// the domain outcomes (not connected, connection rejected, bad network id).
package wireless
