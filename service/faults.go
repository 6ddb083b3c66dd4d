package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/wifi-manager/bus"
	"github.com/yllada/wifi-manager/common"
)

// Error names used for remote faults.
const (
	FaultTransport        = common.ServiceInterface + ".Error.Transport"
	FaultNotConnected     = common.ServiceInterface + ".Error.NotConnected"
	FaultConnect          = common.ServiceInterface + ".Error.Connect"
	FaultInvalidNetworkID = common.ServiceInterface + ".Error.InvalidNetworkID"
	FaultFailed           = common.ServiceInterface + ".Error.Failed"
)

var faultKinds = []struct {
	name string
	kind error
}{
	{FaultTransport, common.ErrTransport},
	{FaultNotConnected, common.ErrNotConnected},
	{FaultConnect, common.ErrConnectionFailed},
	{FaultInvalidNetworkID, common.ErrInvalidNetworkID},
}

// toFault converts a controller error into the reply sent to the caller.
func toFault(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	name := FaultFailed
	for _, fk := range faultKinds {
		if errors.Is(err, fk.kind) {
			name = fk.name
			break
		}
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}

// RemoteFault is an error reported by the daemon. It matches ErrRemoteFault
// and, for known names, the corresponding kind sentinel.
type RemoteFault struct {
	Name    string
	Message string
}

func (f *RemoteFault) Error() string {
	if f.Message == "" {
		return f.Name
	}
	return f.Message
}

func (f *RemoteFault) Unwrap() []error {
	errs := []error{common.ErrRemoteFault}
	if kind := faultKind(f.Name); kind != nil {
		errs = append(errs, kind)
	}
	return errs
}

func faultKind(name string) error {
	for _, fk := range faultKinds {
		if fk.name == name {
			return fk.kind
		}
	}
	return nil
}

// fromCallError turns a method call error into a RemoteFault. Errors that
// are not replies from the daemon (bus down, name not owned) are transport
// failures.
func fromCallError(err error) error {
	if err == nil {
		return nil
	}

	name := bus.ErrorName(err)
	if !strings.HasPrefix(name, common.ServiceInterface+".Error.") {
		return fmt.Errorf("%w: %v", common.ErrTransport, err)
	}

	var body []interface{}
	var dbusErr dbus.Error
	var dbusErrPtr *dbus.Error
	switch {
	case errors.As(err, &dbusErr):
		body = dbusErr.Body
	case errors.As(err, &dbusErrPtr):
		body = dbusErrPtr.Body
	}

	fault := &RemoteFault{Name: name}
	if len(body) > 0 {
		fault.Message, _ = body[0].(string)
	}
	return fault
}
