package action

import (
	"github.com/roach88/mirror/internal/ir"
)

// ReprMessage asks the destination to describe itself.
type ReprMessage struct {
	MsgID   ir.UID
	Address ir.Address
}

func (m ReprMessage) ID() ir.UID              { return m.MsgID }
func (m ReprMessage) Destination() ir.Address { return m.Address }
func (m ReprMessage) Kind() string            { return KindRepr }

func (m ReprMessage) body() ir.Object {
	return ir.Object{
		"msg_id":  ir.String(m.MsgID.String()),
		"address": m.Address.Value(),
	}
}

// CreateRequest asks the destination to create a child resource and report
// back to ReplyTo.
type CreateRequest struct {
	MsgID    ir.UID
	Address  ir.Address
	Settings ir.Object
	ReplyTo  ir.Address
}

func (r CreateRequest) body() ir.Object {
	settings := r.Settings
	if settings == nil {
		settings = ir.Object{}
	}
	return ir.Object{
		"msg_id":   ir.String(r.MsgID.String()),
		"address":  r.Address.Value(),
		"settings": settings,
		"reply_to": r.ReplyTo.Value(),
	}
}

// CreateResponse reports the outcome of a CreateRequest.
type CreateResponse struct {
	MsgID     ir.UID
	Address   ir.Address
	Success   bool
	Status    string
	VMAddress ir.Address
}

func (r CreateResponse) body() ir.Object {
	return ir.Object{
		"msg_id":     ir.String(r.MsgID.String()),
		"address":    r.Address.Value(),
		"success":    ir.Bool(r.Success),
		"status":     ir.String(r.Status),
		"vm_address": r.VMAddress.Value(),
	}
}

// CreateVMMessage requests a new VM under a device.
type CreateVMMessage struct{ CreateRequest }

func (m CreateVMMessage) ID() ir.UID              { return m.MsgID }
func (m CreateVMMessage) Destination() ir.Address { return m.Address }
func (m CreateVMMessage) Kind() string            { return KindCreateVM }

// CreateVMResponse answers CreateVMMessage.
type CreateVMResponse struct{ CreateResponse }

func (m CreateVMResponse) ID() ir.UID              { return m.MsgID }
func (m CreateVMResponse) Destination() ir.Address { return m.Address }
func (m CreateVMResponse) Kind() string            { return KindCreateVMResponse }

// CreateWorkerMessage requests a new worker under a device.
type CreateWorkerMessage struct{ CreateRequest }

func (m CreateWorkerMessage) ID() ir.UID              { return m.MsgID }
func (m CreateWorkerMessage) Destination() ir.Address { return m.Address }
func (m CreateWorkerMessage) Kind() string            { return KindCreateWorker }

// CreateWorkerResponse answers CreateWorkerMessage.
type CreateWorkerResponse struct{ CreateResponse }

func (m CreateWorkerResponse) ID() ir.UID              { return m.MsgID }
func (m CreateWorkerResponse) Destination() ir.Address { return m.Address }
func (m CreateWorkerResponse) Kind() string            { return KindCreateWorkerResponse }
