package gatts

import (
	"context"
	"testing"
)

// newIdleServer returns a server that is not started; tests feed
// events straight into the handlers. The simulated controller is
// primed with the application registration so the outbound calls the
// handlers issue pass its order checks.
func newIdleServer(t *testing.T) (*SimController, *Server) {
	t.Helper()
	sim := NewSimController()
	srv, err := NewServer(sim.Gap(), sim.Gatts())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := sim.Gatts().RegisterApp(context.Background(), srv.appID); err != nil {
		t.Fatalf("RegisterApp: %v", err)
	}
	return sim, srv
}

// driveRegistration feeds the success events of a full registration.
// The handles match what the simulated controller assigns, so the
// outbound calls the handlers issue along the way stay valid.
func driveRegistration(ctx context.Context, srv *Server) {
	srv.handleGattsEvent(ctx, AppRegistered{IF: simGattIF, Status: GattStatusOK, App: srv.appID})
	srv.handleGattsEvent(ctx, ServiceCreated{
		IF: simGattIF, Status: GattStatusOK, Service: 40,
		ID: ServiceID{UUID: ServiceUUID, Primary: true},
	})
	srv.handleGattsEvent(ctx, CharacteristicAdded{
		IF: simGattIF, Status: GattStatusOK, Attr: 42, Service: 40,
		UUID: RecvCharacteristicUUID,
	})
	srv.handleGattsEvent(ctx, CharacteristicAdded{
		IF: simGattIF, Status: GattStatusOK, Attr: 44, Service: 40,
		UUID: NotifyCharacteristicUUID,
	})
	srv.handleGattsEvent(ctx, DescriptorAdded{
		IF: simGattIF, Status: GattStatusOK, Attr: 45, Service: 40,
		UUID: attrClientCharacteristicConfigUUID,
	})
}

func TestRegistrationGuards(t *testing.T) {
	ctx := context.Background()
	sim, srv := newIdleServer(t)
	base := len(sim.Calls(""))

	// A failed status terminates the step without a transition.
	srv.handleGattsEvent(ctx, AppRegistered{IF: simGattIF, Status: GattStatusError, App: srv.appID})
	if got := registrationStateOf(srv); got != stateUnregistered {
		t.Fatalf("state after a failed registration = %v, want %v", got, stateUnregistered)
	}
	if got := len(sim.Calls("")); got != base {
		t.Fatalf("%d outbound calls after a failed registration, want %d", got, base)
	}

	// An event for another application is not ours to act on.
	srv.handleGattsEvent(ctx, AppRegistered{IF: simGattIF, Status: GattStatusOK, App: srv.appID + 1})
	if got := registrationStateOf(srv); got != stateUnregistered {
		t.Fatalf("state after a foreign registration = %v, want %v", got, stateUnregistered)
	}

	srv.handleGattsEvent(ctx, AppRegistered{IF: simGattIF, Status: GattStatusOK, App: srv.appID})
	if got := registrationStateOf(srv); got != stateAppRegistered {
		t.Fatalf("state = %v, want %v", got, stateAppRegistered)
	}
	if got := len(sim.Calls("CreateService")); got != 1 {
		t.Fatalf("%d service creations, want 1", got)
	}

	// A replayed registration event must not create a second service.
	srv.handleGattsEvent(ctx, AppRegistered{IF: simGattIF, Status: GattStatusOK, App: srv.appID})
	if got := len(sim.Calls("CreateService")); got != 1 {
		t.Errorf("%d service creations after a replay, want 1", got)
	}
}

func TestRegistrationChain(t *testing.T) {
	ctx := context.Background()
	sim, srv := newIdleServer(t)
	driveRegistration(ctx, srv)

	if got := registrationStateOf(srv); got != stateReady {
		t.Fatalf("state = %v, want %v", got, stateReady)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.gattIF != simGattIF || srv.serviceHandle != 40 || srv.recvHandle != 42 || srv.notifyHandle != 44 || srv.cccdHandle != 45 {
		t.Errorf("recorded handles if=%d svc=%d recv=%d notify=%d cccd=%d, want 3/40/42/44/45",
			srv.gattIF, srv.serviceHandle, srv.recvHandle, srv.notifyHandle, srv.cccdHandle)
	}
	if got := len(sim.Calls("StartService")); got != 1 {
		t.Errorf("%d service starts, want 1", got)
	}
	if got := len(sim.Calls("AddDescriptor")); got != 1 {
		t.Errorf("%d descriptor additions, want 1", got)
	}
}

func TestRegistrationReplaySuppression(t *testing.T) {
	ctx := context.Background()
	sim, srv := newIdleServer(t)
	driveRegistration(ctx, srv)

	// Replaying completed steps must neither repeat their side effects
	// nor touch the recorded handles.
	srv.handleGattsEvent(ctx, ServiceCreated{
		IF: simGattIF, Status: GattStatusOK, Service: 60,
		ID: ServiceID{UUID: ServiceUUID, Primary: true},
	})
	srv.handleGattsEvent(ctx, CharacteristicAdded{
		IF: simGattIF, Status: GattStatusOK, Attr: 77, Service: 40,
		UUID: RecvCharacteristicUUID,
	})
	srv.handleGattsEvent(ctx, DescriptorAdded{
		IF: simGattIF, Status: GattStatusOK, Attr: 99, Service: 40,
		UUID: attrClientCharacteristicConfigUUID,
	})

	if got := len(sim.Calls("StartService")); got != 1 {
		t.Errorf("%d service starts after replays, want 1", got)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.serviceHandle != 40 || srv.recvHandle != 42 || srv.cccdHandle != 45 {
		t.Errorf("handles changed by replayed events: svc=%d recv=%d cccd=%d", srv.serviceHandle, srv.recvHandle, srv.cccdHandle)
	}
	if srv.regState != stateReady {
		t.Errorf("state = %v after replays, want %v", srv.regState, stateReady)
	}
}

func TestForeignAttributeEventsIgnored(t *testing.T) {
	ctx := context.Background()
	sim, srv := newIdleServer(t)
	driveRegistration(ctx, srv)
	base := len(sim.Calls(""))

	srv.handleGattsEvent(ctx, CharacteristicAdded{
		IF: simGattIF, Status: GattStatusOK, Attr: 70, Service: 40,
		UUID: MustParseUUID("00000000-0000-0000-0000-00000000beef"),
	})
	srv.handleGattsEvent(ctx, DescriptorAdded{
		IF: simGattIF, Status: GattStatusOK, Attr: 71, Service: 40,
		UUID: UUID16(0x2901),
	})
	srv.handleGattsEvent(ctx, DescriptorAdded{
		IF: simGattIF, Status: GattStatusOK, Attr: 72, Service: 99,
		UUID: attrClientCharacteristicConfigUUID,
	})
	srv.handleGattsEvent(ctx, MTUChanged{IF: simGattIF, Conn: 9, MTU: 100})

	if got := len(sim.Calls("")); got != base {
		t.Errorf("%d outbound calls after foreign events, want %d", got, base)
	}
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.recvHandle != 42 || srv.notifyHandle != 44 || srv.cccdHandle != 45 {
		t.Errorf("foreign events changed the handles: recv=%d notify=%d cccd=%d", srv.recvHandle, srv.notifyHandle, srv.cccdHandle)
	}
}

func TestStateNeverMovesBackward(t *testing.T) {
	ctx := context.Background()
	_, srv := newIdleServer(t)

	srv.mu.Lock()
	srv.advanceState(ctx, stateReady)
	srv.advanceState(ctx, stateAppRegistered)
	srv.advanceState(ctx, stateReady)
	got := srv.regState
	srv.mu.Unlock()
	if got != stateReady {
		t.Errorf("state = %v, want %v", got, stateReady)
	}
}

func TestWriteFromUnknownConnectionIgnored(t *testing.T) {
	ctx := context.Background()
	sim, srv := newIdleServer(t)
	driveRegistration(ctx, srv)

	srv.handleGattsEvent(ctx, WriteRequest{
		IF: simGattIF, Conn: 5, Trans: 1, Addr: testAddr(5),
		Attr: 42, NeedResp: true, Value: []byte("lost"),
	})
	if got := len(sim.Calls("SendResponse")); got != 0 {
		t.Fatalf("%d responses to a write from an unknown connection, want 0", got)
	}
	if got := srv.ReceivedData(); len(got) != 0 {
		t.Fatalf("an unknown connection's write landed in the buffer: %q", got)
	}

	// Once the connect event arrives the same write goes through.
	srv.handleGattsEvent(ctx, PeerConnected{IF: simGattIF, Conn: 5, Addr: testAddr(5)})
	srv.handleGattsEvent(ctx, WriteRequest{
		IF: simGattIF, Conn: 5, Trans: 2, Addr: testAddr(5),
		Attr: 42, NeedResp: true, Value: []byte("kept"),
	})
	if got := len(sim.Calls("SendResponse")); got != 1 {
		t.Fatalf("%d responses after connecting, want 1", got)
	}
	if got := string(srv.ReceivedData()); got != "kept" {
		t.Errorf("buffer = %q, want %q", got, "kept")
	}
}

func TestConfirmWithoutPendingPanics(t *testing.T) {
	ctx := context.Background()
	_, srv := newIdleServer(t)

	defer func() {
		if recover() == nil {
			t.Errorf("a confirmation with no pending indication did not panic")
		}
	}()
	srv.handleGattsEvent(ctx, IndicationConfirmed{
		IF: simGattIF, Status: GattStatusOK, Conn: 1, Addr: testAddr(1),
	})
}

func TestFailedConfirmationLeavesPendingSet(t *testing.T) {
	ctx := context.Background()
	_, srv := newIdleServer(t)

	srv.mu.Lock()
	srv.indPending = true
	srv.indPeer = testAddr(1)
	srv.mu.Unlock()

	srv.handleGattsEvent(ctx, IndicationConfirmed{
		IF: simGattIF, Status: GattStatusError, Conn: 1, Addr: testAddr(1),
	})
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if !srv.indPending {
		t.Errorf("a failed confirmation cleared the pending indication")
	}
}
