package gatts

import (
	"context"
	"encoding/binary"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// registrationState tracks the one-shot service registration sequence.
// It only ever moves forward; stateReady is terminal.
type registrationState int

const (
	stateUnregistered registrationState = iota
	stateAppRegistered
	stateServiceCreated
	stateCharacteristicsRequested
	stateRecvCharacteristicAdded
	stateNotifyCharacteristicAdded
	stateDescriptorRequested
	stateReady
)

var registrationStateName = map[registrationState]string{
	stateUnregistered:              "unregistered",
	stateAppRegistered:             "app registered",
	stateServiceCreated:            "service created",
	stateCharacteristicsRequested:  "characteristics requested",
	stateRecvCharacteristicAdded:   "recv characteristic added",
	stateNotifyCharacteristicAdded: "notify characteristic added",
	stateDescriptorRequested:       "descriptor requested",
	stateReady:                     "ready",
}

func (s registrationState) String() string {
	if name, ok := registrationStateName[s]; ok {
		return name
	}
	return "invalid"
}

// advanceState moves the registration state forward. Backward moves
// are refused; characteristic-added events may arrive in either order.
func (s *Server) advanceState(ctx context.Context, to registrationState) {
	if to <= s.regState {
		logger.Debugf(ctx, "registration state is already %v, not moving back to %v", s.regState, to)
		return
	}
	logger.Debugf(ctx, "registration state: %v -> %v", s.regState, to)
	s.regState = to
}

func (s *Server) handleGapEvent(ctx context.Context, ev GapEvent) {
	logger.Debugf(ctx, "GAP event: %#+v", ev)
	switch ev := ev.(type) {
	case AdvConfigured:
		if err := checkBTStatus(ctx, ev.Status); err != nil {
			logger.Errorf(ctx, "advertising configuration failed: %v", err)
			return
		}
		s.startAdvertising(ctx)
	case AdvStarted:
		if err := checkBTStatus(ctx, ev.Status); err != nil {
			logger.Errorf(ctx, "advertising did not start: %v", err)
			return
		}
		logger.Infof(ctx, "advertising as %q", s.deviceName)
	case AdvStopped:
		// Whatever stopped it, the device should stay discoverable.
		logger.Warnf(ctx, "advertising stopped (%v), restarting", ev.Status)
		s.startAdvertising(ctx)
	default:
		logger.Debugf(ctx, "ignoring GAP event %T", ev)
	}
}

// startAdvertising requests (re)start of advertising. Failures are
// warnings: the server keeps running and the next restart trigger
// tries again.
func (s *Server) startAdvertising(ctx context.Context) {
	if err := s.gap.StartAdvertising(ctx); err != nil {
		logger.Warnf(ctx, "unable to start advertising: %v", err)
	}
}

func (s *Server) handleGattsEvent(ctx context.Context, ev GattsEvent) {
	logger.Debugf(ctx, "GATTS event: %#+v", ev)
	switch ev := ev.(type) {
	case AppRegistered:
		s.handleAppRegistered(ctx, ev)
	case ServiceCreated:
		s.handleServiceCreated(ctx, ev)
	case CharacteristicAdded:
		s.handleCharacteristicAdded(ctx, ev)
	case DescriptorAdded:
		s.handleDescriptorAdded(ctx, ev)
	case MTUChanged:
		s.handleMTUChanged(ctx, ev)
	case PeerConnected:
		s.handlePeerConnected(ctx, ev)
	case PeerDisconnected:
		s.handlePeerDisconnected(ctx, ev)
	case ReadRequest:
		s.handleRead(ctx, ev)
	case WriteRequest:
		s.handleWrite(ctx, ev)
	case IndicationConfirmed:
		s.handleIndicationConfirmed(ctx, ev)
	default:
		logger.Debugf(ctx, "ignoring GATTS event %T", ev)
	}
}

func (s *Server) handleAppRegistered(ctx context.Context, ev AppRegistered) {
	if err := checkGattStatus(ctx, ev.Status); err != nil {
		logger.Errorf(ctx, "application registration failed: %v", err)
		return
	}
	if ev.App != s.appID {
		logger.Debugf(ctx, "registration event for foreign application %d", ev.App)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regState != stateUnregistered {
		logger.Warnf(ctx, "duplicate registration event in state %v", s.regState)
		return
	}
	s.gattIF = ev.IF
	s.advanceState(ctx, stateAppRegistered)

	if err := s.gap.SetDeviceName(ctx, s.deviceName); err != nil {
		logger.Errorf(ctx, "unable to set device name: %v", err)
		return
	}
	cfg := &AdvConfig{
		IncludeName:    true,
		IncludeTxPower: true,
		Flag:           advFlag,
		ServiceUUID:    &ServiceUUID,
	}
	if err := s.gap.ConfigureAdvertising(ctx, cfg); err != nil {
		logger.Errorf(ctx, "unable to configure advertising: %v", err)
		return
	}
	id := ServiceID{UUID: ServiceUUID, Primary: true}
	if err := s.gatts.CreateService(ctx, ev.IF, id, serviceNumHandles); err != nil {
		logger.Errorf(ctx, "unable to create the service: %v", err)
	}
}

func (s *Server) handleServiceCreated(ctx context.Context, ev ServiceCreated) {
	if err := checkGattStatus(ctx, ev.Status); err != nil {
		logger.Errorf(ctx, "service creation failed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regState != stateAppRegistered {
		logger.Warnf(ctx, "duplicate service-created event in state %v", s.regState)
		return
	}
	s.serviceHandle = ev.Service
	s.advanceState(ctx, stateServiceCreated)

	if err := s.gatts.StartService(ctx, ev.Service); err != nil {
		logger.Errorf(ctx, "unable to start service %d: %v", ev.Service, err)
		return
	}
	recv := Characteristic{
		UUID:         RecvCharacteristicUUID,
		Permissions:  PermissionRead | PermissionWrite,
		Properties:   PropertyRead | PropertyWrite,
		MaxLen:       characteristicMaxLen,
		AutoResponse: AutoResponseByGatt,
	}
	if err := s.gatts.AddCharacteristic(ctx, ev.Service, recv, nil); err != nil {
		logger.Errorf(ctx, "unable to add the receive characteristic: %v", err)
		return
	}
	notify := Characteristic{
		UUID:         NotifyCharacteristicUUID,
		Permissions:  PermissionRead | PermissionWrite,
		Properties:   PropertyRead | PropertyIndicate,
		MaxLen:       characteristicMaxLen,
		AutoResponse: AutoResponseByGatt,
	}
	if err := s.gatts.AddCharacteristic(ctx, ev.Service, notify, nil); err != nil {
		logger.Errorf(ctx, "unable to add the notify characteristic: %v", err)
		return
	}
	s.advanceState(ctx, stateCharacteristicsRequested)
}

func (s *Server) handleCharacteristicAdded(ctx context.Context, ev CharacteristicAdded) {
	if err := checkGattStatus(ctx, ev.Status); err != nil {
		logger.Errorf(ctx, "characteristic addition failed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case ev.UUID.Equal(RecvCharacteristicUUID):
		if s.recvHandle != 0 {
			logger.Warnf(ctx, "receive characteristic was already added at handle %d", s.recvHandle)
			return
		}
		s.recvHandle = ev.Attr
		s.advanceState(ctx, stateRecvCharacteristicAdded)
		logger.Debugf(ctx, "receive characteristic at handle %d", ev.Attr)
	case ev.UUID.Equal(NotifyCharacteristicUUID):
		if s.notifyHandle != 0 {
			logger.Warnf(ctx, "notify characteristic was already added at handle %d", s.notifyHandle)
			return
		}
		s.notifyHandle = ev.Attr
		s.advanceState(ctx, stateNotifyCharacteristicAdded)
		logger.Debugf(ctx, "notify characteristic at handle %d", ev.Attr)
		dsc := Descriptor{
			UUID:        attrClientCharacteristicConfigUUID,
			Permissions: PermissionRead | PermissionWrite,
		}
		if err := s.gatts.AddDescriptor(ctx, ev.Service, dsc); err != nil {
			logger.Errorf(ctx, "unable to add the CCCD: %v", err)
			return
		}
		s.advanceState(ctx, stateDescriptorRequested)
	default:
		logger.Debugf(ctx, "added characteristic %v is not ours", ev.UUID)
	}
}

func (s *Server) handleDescriptorAdded(ctx context.Context, ev DescriptorAdded) {
	if err := checkGattStatus(ctx, ev.Status); err != nil {
		logger.Errorf(ctx, "descriptor addition failed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !ev.UUID.Equal(attrClientCharacteristicConfigUUID) || ev.Service != s.serviceHandle {
		logger.Debugf(ctx, "added descriptor %v on service %d is not ours", ev.UUID, ev.Service)
		return
	}
	if s.cccdHandle != 0 {
		logger.Warnf(ctx, "CCCD was already added at handle %d", s.cccdHandle)
		return
	}
	s.cccdHandle = ev.Attr
	s.advanceState(ctx, stateReady)
	logger.Infof(ctx, "service registered, ready for connections")
}

func (s *Server) handleMTUChanged(ctx context.Context, ev MTUChanged) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.table.setMTU(ev.Conn, ev.MTU) {
		logger.Debugf(ctx, "MTU event for unknown connection %d", ev.Conn)
		return
	}
	logger.Debugf(ctx, "connection %d negotiated MTU %d", ev.Conn, ev.MTU)
}

func (s *Server) handlePeerConnected(ctx context.Context, ev PeerConnected) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.table.add(ev.Addr, ev.Conn) {
		logger.Warnf(ctx, "not tracking central %v (table full or peer already present)", ev.Addr)
		return
	}
	if err := s.gap.UpdateConnParams(ctx, ev.Addr, s.connParams); err != nil {
		logger.Warnf(ctx, "unable to request connection parameters for %v: %v", ev.Addr, err)
	}
	s.connected = true
	logger.Infof(ctx, "central %v connected (%d/%d)", ev.Addr, s.table.len(), MaxConnections)
}

func (s *Server) handlePeerDisconnected(ctx context.Context, ev PeerDisconnected) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.table.remove(ev.Addr)
	s.connected = !s.table.empty()
	if !removed {
		logger.Debugf(ctx, "disconnect for unknown peer %v", ev.Addr)
		return
	}
	logger.Infof(ctx, "central %v disconnected (reason 0x%02x)", ev.Addr, ev.Reason)
	if s.table.empty() {
		logger.Infof(ctx, "no centrals left, advertising again")
		s.startAdvertising(ctx)
	}
}

// handleRead answers an attribute read. Reads always get a response:
// an empty value for the characteristics, the not-subscribed value for
// the CCCD, an error status for anything else.
func (s *Server) handleRead(ctx context.Context, ev ReadRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := GattStatusOK
	var rsp *Response
	switch {
	case ev.Attr == s.recvHandle && s.recvHandle != 0:
		// Nothing to read back from the receive characteristic.
	case ev.Attr == s.notifyHandle && s.notifyHandle != 0:
		// Nor from the notify characteristic.
	case ev.Attr == s.cccdHandle && s.cccdHandle != 0:
		// The CCCD always reads as "not subscribed"; the live state is
		// tracked per connection, not in the descriptor.
		rsp = &Response{Attr: ev.Attr, Offset: ev.Offset, Value: []byte{0x00, 0x00}}
	default:
		logger.Debugf(ctx, "read of unknown attribute %d", ev.Attr)
		status = GattStatusError
	}
	if err := s.gatts.SendResponse(ctx, ev.IF, ev.Conn, ev.Trans, status, rsp); err != nil {
		logger.Errorf(ctx, "unable to respond to the read of attribute %d: %v", ev.Attr, err)
	}
}

// handleWrite applies an attribute write and, for handled writes that
// want one, sends the acknowledgment. Unhandled writes get no reply.
func (s *Server) handleWrite(ctx context.Context, ev WriteRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.applyWrite(ctx, ev) {
		return
	}
	if !ev.NeedResp {
		return
	}
	var rsp *Response
	if ev.IsPrep {
		// Prepared writes are acknowledged by echoing what was written.
		rsp = &Response{Attr: ev.Attr, Offset: ev.Offset, Value: ev.Value}
	}
	if err := s.gatts.SendResponse(ctx, ev.IF, ev.Conn, ev.Trans, GattStatusOK, rsp); err != nil {
		logger.Errorf(ctx, "unable to acknowledge the write to attribute %d: %v", ev.Attr, err)
	}
}

// applyWrite routes a write to the matching attribute and reports
// whether it was handled.
func (s *Server) applyWrite(ctx context.Context, ev WriteRequest) bool {
	conn := s.table.find(ev.Conn)
	if conn == nil {
		logger.Debugf(ctx, "write from unknown connection %d", ev.Conn)
		return false
	}
	switch {
	case ev.Attr == s.cccdHandle && s.cccdHandle != 0:
		// Subscription changes require a two-byte write at offset
		// zero; writes of any other shape change nothing.
		if ev.Offset == 0 && len(ev.Value) == 2 {
			if binary.LittleEndian.Uint16(ev.Value) == cccdIndicationsEnabled {
				if !conn.subscribed {
					conn.subscribed = true
					logger.Infof(ctx, "central %v subscribed to indications", conn.peer)
				}
			} else if conn.subscribed {
				conn.subscribed = false
				logger.Infof(ctx, "central %v unsubscribed from indications", conn.peer)
			}
		}
		return true
	case ev.Attr == s.recvHandle && s.recvHandle != 0:
		logger.Debugf(ctx, "received %d bytes from %v", len(ev.Value), ev.Addr)
		s.recvBuf = append(s.recvBuf, ev.Value...)
		return true
	default:
		return false
	}
}

func (s *Server) handleIndicationConfirmed(ctx context.Context, ev IndicationConfirmed) {
	if err := checkGattStatus(ctx, ev.Status); err != nil {
		logger.Errorf(ctx, "indication was not confirmed: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.indPending {
		panic("indication confirmed but none is pending")
	}
	logger.Debugf(ctx, "indication to %v confirmed", s.indPeer)
	s.indPending = false
	s.indPeer = BDAddr{}
	s.cond.Broadcast()
}
