package gatts

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// simGattIF is the interface the simulated stack assigns to the first
// registered application.
const simGattIF GattIF = 3

// simEventBuffer is the event channel capacity. Emission happens while
// the dispatch loop may be busy in a handler, so the channels must
// absorb a burst without blocking the emitter.
const simEventBuffer = 64

// SimController is an in-memory controller for tests and hardware-less
// runs. It implements the Gap and Gatts facets, assigns attribute
// handles the way a real stack would, answers every request with a
// success event, records outbound calls for inspection, and lets the
// caller act as the central side of each link.
type SimController struct {
	mu sync.Mutex

	gapEvents   chan GapEvent
	gattsEvents chan GattsEvent

	registered bool
	appID      AppID

	deviceName  string
	advConfig   *AdvConfig
	advertising bool

	nextHandle AttrHandle
	services   map[AttrHandle]*simService

	nextConn  ConnID
	nextTrans TransferID
	centrals  map[ConnID]*SimCentral

	calls []SimCall
}

// simService tracks the handle range of one created service.
type simService struct {
	id         ServiceID
	handle     AttrHandle
	numHandles uint16
	cursor     AttrHandle
	started    bool
}

// SimCall is one recorded outbound call. Fields beyond Op are filled
// only where the call has them.
type SimCall struct {
	Op     string
	Conn   ConnID
	Attr   AttrHandle
	UUID   UUID
	Status GattStatus
	Value  []byte
}

// NewSimController returns a simulated controller with no links.
func NewSimController() *SimController {
	return &SimController{
		gapEvents:   make(chan GapEvent, simEventBuffer),
		gattsEvents: make(chan GattsEvent, simEventBuffer),
		nextHandle:  40,
		nextConn:    1,
		services:    map[AttrHandle]*simService{},
		centrals:    map[ConnID]*SimCentral{},
	}
}

// Gap returns the advertising facet of the controller.
func (c *SimController) Gap() Gap { return simGap{c} }

// Gatts returns the GATT server facet of the controller.
func (c *SimController) Gatts() Gatts { return simGatts{c} }

// Close closes both event channels. Call it only after the consumer
// stopped; later emissions panic.
func (c *SimController) Close() {
	close(c.gapEvents)
	close(c.gattsEvents)
}

// Calls returns the recorded outbound calls with the given op name
// ("StartAdvertising", "Indicate", ...), oldest first. An empty op
// returns everything.
func (c *SimController) Calls(op string) []SimCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var calls []SimCall
	for _, call := range c.calls {
		if op == "" || call.Op == op {
			calls = append(calls, call)
		}
	}
	return calls
}

// Advertising reports whether the simulated radio is broadcasting.
func (c *SimController) Advertising() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advertising
}

// DeviceName returns the last name set through the Gap facet.
func (c *SimController) DeviceName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deviceName
}

// HandleOf returns the value handle assigned to the characteristic or
// descriptor with the given UUID, or zero if it was never added. It
// stands in for the discovery procedure a real central would run.
func (c *SimController) HandleOf(u UUID) AttrHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if (call.Op == "AddCharacteristic" || call.Op == "AddDescriptor") && call.UUID.Equal(u) {
			return call.Attr
		}
	}
	return 0
}

// EmitGapEvent injects an event as if the radio produced it.
func (c *SimController) EmitGapEvent(ev GapEvent) {
	c.gapEvents <- ev
}

// EmitGattsEvent injects an event as if the stack produced it.
func (c *SimController) EmitGattsEvent(ev GattsEvent) {
	c.gattsEvents <- ev
}

func (c *SimController) record(call SimCall) {
	c.calls = append(c.calls, call)
}

// Connect attaches a new simulated central with a generated address
// and delivers the connect event.
func (c *SimController) Connect(ctx context.Context) *SimCentral {
	id := uuid.New()
	var addr BDAddr
	copy(addr[:], id[:])
	return c.ConnectAddr(ctx, addr)
}

// ConnectAddr is Connect with a caller-chosen address.
func (c *SimController) ConnectAddr(ctx context.Context, addr BDAddr) *SimCentral {
	c.mu.Lock()
	conn := c.nextConn
	c.nextConn++
	central := &SimCentral{
		ctrl: c,
		conn: conn,
		addr: addr,
		ind:  make(chan []byte, 8),
	}
	c.centrals[conn] = central
	c.mu.Unlock()

	c.gattsEvents <- PeerConnected{IF: simGattIF, Conn: conn, Addr: addr}
	return central
}

func (c *SimController) trans() TransferID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextTrans++
	return c.nextTrans
}

// SimCentral is the far side of one simulated link. Its methods
// deliver the corresponding inbound events to the server.
type SimCentral struct {
	ctrl *SimController
	conn ConnID
	addr BDAddr

	ind        chan []byte
	indPending bool
}

// Addr returns the central's link-layer address.
func (s *SimCentral) Addr() BDAddr { return s.addr }

// Conn returns the connection ID the stack assigned to this link.
func (s *SimCentral) Conn() ConnID { return s.conn }

// Indications returns the channel indicated values arrive on.
func (s *SimCentral) Indications() <-chan []byte { return s.ind }

// Read requests a read of the given attribute.
func (s *SimCentral) Read(ctx context.Context, attr AttrHandle) {
	s.ctrl.gattsEvents <- ReadRequest{
		IF:       simGattIF,
		Conn:     s.conn,
		Trans:    s.ctrl.trans(),
		Addr:     s.addr,
		Attr:     attr,
		NeedResp: true,
	}
}

// Write writes value to the given attribute at offset zero, asking for
// an acknowledgment.
func (s *SimCentral) Write(ctx context.Context, attr AttrHandle, value []byte) {
	s.WriteAt(ctx, attr, 0, value, true, false)
}

// WriteAt is Write with full control over the request shape.
func (s *SimCentral) WriteAt(ctx context.Context, attr AttrHandle, offset uint16, value []byte, needResp, isPrep bool) {
	s.ctrl.gattsEvents <- WriteRequest{
		IF:       simGattIF,
		Conn:     s.conn,
		Trans:    s.ctrl.trans(),
		Addr:     s.addr,
		Attr:     attr,
		Offset:   offset,
		NeedResp: needResp,
		IsPrep:   isPrep,
		Value:    append([]byte(nil), value...),
	}
}

// ExchangeMTU negotiates a new MTU for the link.
func (s *SimCentral) ExchangeMTU(ctx context.Context, mtu uint16) {
	s.ctrl.gattsEvents <- MTUChanged{IF: simGattIF, Conn: s.conn, MTU: mtu}
}

// Confirm acknowledges the indication last delivered to this central.
func (s *SimCentral) Confirm(ctx context.Context) error {
	s.ctrl.mu.Lock()
	if !s.indPending {
		s.ctrl.mu.Unlock()
		return fmt.Errorf("central %v has no indication to confirm", s.addr)
	}
	s.indPending = false
	s.ctrl.mu.Unlock()

	s.ctrl.gattsEvents <- IndicationConfirmed{
		IF:     simGattIF,
		Status: GattStatusOK,
		Conn:   s.conn,
		Addr:   s.addr,
	}
	return nil
}

// Disconnect tears the link down.
func (s *SimCentral) Disconnect(ctx context.Context) {
	s.ctrl.mu.Lock()
	delete(s.ctrl.centrals, s.conn)
	s.ctrl.mu.Unlock()

	s.ctrl.gattsEvents <- PeerDisconnected{
		IF:     simGattIF,
		Conn:   s.conn,
		Addr:   s.addr,
		Reason: 0x13, // remote user terminated connection
	}
}

// simGap is the Gap facet of SimController.
type simGap struct {
	c *SimController
}

func (g simGap) Events() <-chan GapEvent { return g.c.gapEvents }

func (g simGap) SetDeviceName(ctx context.Context, name string) error {
	g.c.mu.Lock()
	defer g.c.mu.Unlock()
	g.c.deviceName = name
	g.c.record(SimCall{Op: "SetDeviceName", Value: []byte(name)})
	return nil
}

func (g simGap) ConfigureAdvertising(ctx context.Context, cfg *AdvConfig) error {
	g.c.mu.Lock()
	g.c.advConfig = cfg
	g.c.record(SimCall{Op: "ConfigureAdvertising"})
	g.c.mu.Unlock()

	g.c.gapEvents <- AdvConfigured{Status: BTStatusSuccess}
	return nil
}

func (g simGap) StartAdvertising(ctx context.Context) error {
	g.c.mu.Lock()
	g.c.advertising = true
	g.c.record(SimCall{Op: "StartAdvertising"})
	g.c.mu.Unlock()

	g.c.gapEvents <- AdvStarted{Status: BTStatusSuccess}
	return nil
}

func (g simGap) UpdateConnParams(ctx context.Context, addr BDAddr, params ConnParams) error {
	g.c.mu.Lock()
	g.c.record(SimCall{Op: "UpdateConnParams"})
	g.c.mu.Unlock()

	g.c.gapEvents <- ConnParamsUpdated{Status: BTStatusSuccess, Addr: addr, Params: params}
	return nil
}

// simGatts is the Gatts facet of SimController.
type simGatts struct {
	c *SimController
}

func (g simGatts) Events() <-chan GattsEvent { return g.c.gattsEvents }

func (g simGatts) RegisterApp(ctx context.Context, id AppID) error {
	g.c.mu.Lock()
	if g.c.registered {
		g.c.mu.Unlock()
		return fmt.Errorf("application %d is already registered", g.c.appID)
	}
	g.c.registered = true
	g.c.appID = id
	g.c.record(SimCall{Op: "RegisterApp"})
	g.c.mu.Unlock()

	g.c.gattsEvents <- AppRegistered{IF: simGattIF, Status: GattStatusOK, App: id}
	return nil
}

func (g simGatts) CreateService(ctx context.Context, gattIF GattIF, id ServiceID, numHandles uint16) error {
	g.c.mu.Lock()
	if !g.c.registered || gattIF != simGattIF {
		g.c.mu.Unlock()
		return fmt.Errorf("no application registered on interface %d", gattIF)
	}
	svc := &simService{
		id:         id,
		handle:     g.c.nextHandle,
		numHandles: numHandles,
		cursor:     g.c.nextHandle,
	}
	g.c.nextHandle += AttrHandle(numHandles)
	g.c.services[svc.handle] = svc
	g.c.record(SimCall{Op: "CreateService", Attr: svc.handle, UUID: id.UUID})
	g.c.mu.Unlock()

	g.c.gattsEvents <- ServiceCreated{IF: gattIF, Status: GattStatusOK, Service: svc.handle, ID: id}
	return nil
}

func (g simGatts) StartService(ctx context.Context, service AttrHandle) error {
	g.c.mu.Lock()
	svc, ok := g.c.services[service]
	if !ok {
		g.c.mu.Unlock()
		return fmt.Errorf("unknown service handle %d", service)
	}
	svc.started = true
	g.c.record(SimCall{Op: "StartService", Attr: service})
	g.c.mu.Unlock()

	g.c.gattsEvents <- ServiceStarted{IF: simGattIF, Status: GattStatusOK, Service: service}
	return nil
}

// alloc reserves n attribute handles inside the service's range.
func (s *simService) alloc(n uint16) (AttrHandle, error) {
	if s.cursor+AttrHandle(n) > s.handle+AttrHandle(s.numHandles) {
		return 0, fmt.Errorf("service %d is out of attribute handles", s.handle)
	}
	s.cursor += AttrHandle(n)
	return s.cursor, nil
}

func (g simGatts) AddCharacteristic(ctx context.Context, service AttrHandle, chr Characteristic, value []byte) error {
	g.c.mu.Lock()
	svc, ok := g.c.services[service]
	if !ok {
		g.c.mu.Unlock()
		return fmt.Errorf("unknown service handle %d", service)
	}
	// One handle for the declaration, one for the value.
	attr, err := svc.alloc(2)
	if err != nil {
		g.c.mu.Unlock()
		return err
	}
	g.c.record(SimCall{Op: "AddCharacteristic", Attr: attr, UUID: chr.UUID})
	g.c.mu.Unlock()

	g.c.gattsEvents <- CharacteristicAdded{
		IF:      simGattIF,
		Status:  GattStatusOK,
		Attr:    attr,
		Service: service,
		UUID:    chr.UUID,
	}
	return nil
}

func (g simGatts) AddDescriptor(ctx context.Context, service AttrHandle, dsc Descriptor) error {
	g.c.mu.Lock()
	svc, ok := g.c.services[service]
	if !ok {
		g.c.mu.Unlock()
		return fmt.Errorf("unknown service handle %d", service)
	}
	attr, err := svc.alloc(1)
	if err != nil {
		g.c.mu.Unlock()
		return err
	}
	g.c.record(SimCall{Op: "AddDescriptor", Attr: attr, UUID: dsc.UUID})
	g.c.mu.Unlock()

	g.c.gattsEvents <- DescriptorAdded{
		IF:      simGattIF,
		Status:  GattStatusOK,
		Attr:    attr,
		Service: service,
		UUID:    dsc.UUID,
	}
	return nil
}

func (g simGatts) SendResponse(ctx context.Context, gattIF GattIF, conn ConnID, trans TransferID, status GattStatus, rsp *Response) error {
	call := SimCall{Op: "SendResponse", Conn: conn, Status: status}
	if rsp != nil {
		call.Attr = rsp.Attr
		call.Value = append([]byte(nil), rsp.Value...)
	}
	g.c.mu.Lock()
	g.c.record(call)
	g.c.mu.Unlock()

	g.c.gattsEvents <- ResponseSent{IF: gattIF, Status: GattStatusOK, Attr: call.Attr}
	return nil
}

func (g simGatts) Indicate(ctx context.Context, gattIF GattIF, conn ConnID, attr AttrHandle, value []byte) error {
	g.c.mu.Lock()
	central, ok := g.c.centrals[conn]
	if !ok {
		g.c.mu.Unlock()
		return fmt.Errorf("unknown connection %d", conn)
	}
	central.indPending = true
	g.c.record(SimCall{Op: "Indicate", Conn: conn, Attr: attr, Value: append([]byte(nil), value...)})
	g.c.mu.Unlock()

	select {
	case central.ind <- append([]byte(nil), value...):
	default:
		// The central is not draining; it still owes a confirmation.
	}
	return nil
}
