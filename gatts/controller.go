package gatts

import (
	"context"
	"fmt"
)

// This file models the boundary with the platform Bluetooth stack. The
// server issues the outbound calls of the Gap and Gatts interfaces and
// consumes their events (see event.go) from the two channels. Outbound
// calls may be issued from event handlers; implementations must not
// deliver events synchronously from inside an outbound call or the
// dispatch loop deadlocks.

// BDAddr is a link-layer device address.
type BDAddr [6]byte

func (a BDAddr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

// ConnID identifies a connection. It is assigned by the stack and
// stable for the lifetime of the link.
type ConnID uint16

// TransferID identifies one request/response exchange on a connection.
type TransferID uint32

// AttrHandle is an attribute handle assigned by the stack during
// registration. Handles start at 1; zero means not assigned yet.
type AttrHandle uint16

// GattIF identifies a registered GATT application.
type GattIF uint8

// GattIFNone marks the application as not registered.
const GattIFNone GattIF = 0xff

// AppID names an application profile to register.
type AppID uint16

// Permission is a bitmask of attribute access permissions.
type Permission uint16

const (
	PermissionRead           Permission = 0x0001
	PermissionReadEncrypted  Permission = 0x0002
	PermissionWrite          Permission = 0x0010
	PermissionWriteEncrypted Permission = 0x0020
)

// Property is a bitmask of characteristic properties declared to the
// peer.
type Property uint8

const (
	PropertyBroadcast       Property = 0x01
	PropertyRead            Property = 0x02
	PropertyWriteNoResponse Property = 0x04
	PropertyWrite           Property = 0x08
	PropertyNotify          Property = 0x10
	PropertyIndicate        Property = 0x20
)

// AutoResponse selects who answers reads and writes of an attribute's
// stored value: the stack itself or the application.
type AutoResponse uint8

const (
	AutoResponseByApp AutoResponse = iota
	AutoResponseByGatt
)

// ServiceID identifies a service to create.
type ServiceID struct {
	UUID     UUID
	Instance uint8
	Primary  bool
}

// Characteristic describes a characteristic to add to a service.
type Characteristic struct {
	UUID         UUID
	Permissions  Permission
	Properties   Property
	MaxLen       uint16
	AutoResponse AutoResponse
}

// Descriptor describes a descriptor to add to a service.
type Descriptor struct {
	UUID        UUID
	Permissions Permission
}

// Response carries the value part of a read or prepared-write response.
type Response struct {
	Attr    AttrHandle
	Offset  uint16
	AuthReq uint8
	Value   []byte
}

// ConnParams are preferred connection parameters requested for a peer.
// Intervals are in 1.25 ms units, the supervision timeout in 10 ms
// units.
type ConnParams struct {
	MinInterval uint16
	MaxInterval uint16
	Latency     uint16
	Timeout     uint16
}

// AdvConfig is the advertising payload configuration.
type AdvConfig struct {
	IncludeName    bool
	IncludeTxPower bool
	Flag           uint8
	ServiceUUID    *UUID
}

// Gap is the advertising and link management subsystem of the
// controller.
type Gap interface {
	// Events returns the channel GAP events are delivered on. It is
	// closed when the controller shuts down.
	Events() <-chan GapEvent

	SetDeviceName(ctx context.Context, name string) error
	ConfigureAdvertising(ctx context.Context, cfg *AdvConfig) error
	StartAdvertising(ctx context.Context) error
	UpdateConnParams(ctx context.Context, addr BDAddr, params ConnParams) error
}

// Gatts is the GATT server subsystem of the controller.
type Gatts interface {
	// Events returns the channel GATT server events are delivered on.
	// It is closed when the controller shuts down.
	Events() <-chan GattsEvent

	RegisterApp(ctx context.Context, id AppID) error
	CreateService(ctx context.Context, gattIF GattIF, id ServiceID, numHandles uint16) error
	StartService(ctx context.Context, service AttrHandle) error
	AddCharacteristic(ctx context.Context, service AttrHandle, chr Characteristic, value []byte) error
	AddDescriptor(ctx context.Context, service AttrHandle, dsc Descriptor) error
	SendResponse(ctx context.Context, gattIF GattIF, conn ConnID, trans TransferID, status GattStatus, rsp *Response) error
	Indicate(ctx context.Context, gattIF GattIF, conn ConnID, attr AttrHandle, value []byte) error
}

// Controller bundles both subsystems the way platform stacks hand them
// out.
type Controller interface {
	Gap() Gap
	Gatts() Gatts
}
