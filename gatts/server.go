package gatts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/ctxflow"
)

// ErrNotConnected is returned by Send when no central is connected.
var ErrNotConnected = errors.New("no central connected")

// Server is the peripheral-role GATT server. It registers the IR
// recorder service with the controller, keeps the bounded connection
// table, answers attribute reads and writes, and pushes data to
// centrals over flow-controlled indications.
//
// All mutable state lives behind one lock; the condition variable
// signals indication confirmations to blocked Send calls.
type Server struct {
	gap   Gap
	gatts Gatts

	deviceName string
	appID      AppID
	connParams ConnParams

	mu   *sync.Mutex
	cond *sync.Cond

	regState      registrationState
	gattIF        GattIF
	serviceHandle AttrHandle
	recvHandle    AttrHandle
	notifyHandle  AttrHandle
	cccdHandle    AttrHandle

	table     connTable
	connected bool

	indPending bool
	indPeer    BDAddr

	recvBuf []byte

	mainLoop   ctxflow.StartStopper[ctxflow.StartStopperBackendFuncs]
	loopCancel context.CancelFunc
	loopDone   chan struct{}
}

// An Option configures a Server.
// See http://commandcenter.blogspot.com.au/2014/01/self-referential-functions-and-design.html for more discussion.
type Option func(*Server) error

// WithDeviceName overrides the advertised GAP device name.
func WithDeviceName(name string) Option {
	return func(s *Server) error {
		if name == "" {
			return errors.New("empty device name")
		}
		s.deviceName = name
		return nil
	}
}

// WithAppID overrides the application profile ID to register.
func WithAppID(id AppID) Option {
	return func(s *Server) error {
		s.appID = id
		return nil
	}
}

// WithConnParams overrides the connection parameters requested for
// every new central.
func WithConnParams(params ConnParams) Option {
	return func(s *Server) error {
		s.connParams = params
		return nil
	}
}

// NewServer returns a Server speaking to the given controller
// subsystems. Nothing happens until Start.
func NewServer(gap Gap, gattServer Gatts, opts ...Option) (*Server, error) {
	mu := &sync.Mutex{}
	s := &Server{
		gap:        gap,
		gatts:      gattServer,
		deviceName: DefaultDeviceName,
		appID:      defaultAppID,
		connParams: defaultConnParams,
		mu:         mu,
		cond:       sync.NewCond(mu),
		gattIF:     GattIFNone,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.mainLoop = ctxflow.StartStopper[ctxflow.StartStopperBackendFuncs]{
		StartStopper: ctxflow.StartStopperBackendFuncs{
			StartFunc: s.doStartMainLoop,
			StopFunc:  s.doStopMainLoop,
		},
	}
	return s, nil
}

// Start launches the dispatch loop and triggers application
// registration. The registration sequence runs once; starting again
// after a stop resumes dispatch without re-registering.
func (s *Server) Start(ctx context.Context) error {
	return s.mainLoop.Start(ctx)
}

// Stop shuts the dispatch loop down. It does not unblock a Send call
// waiting for a confirmation.
func (s *Server) Stop() error {
	return s.mainLoop.Stop()
}

func (s *Server) doStartMainLoop(ctx context.Context, _ ...any) error {
	ctx, cancel := context.WithCancel(ctx)
	s.loopCancel = cancel
	s.loopDone = make(chan struct{})
	go s.dispatchLoop(ctx)

	s.mu.Lock()
	registered := s.regState != stateUnregistered
	s.mu.Unlock()
	if registered {
		logger.Debugf(ctx, "application %d is already registered", s.appID)
		return nil
	}
	if err := s.gatts.RegisterApp(ctx, s.appID); err != nil {
		cancel()
		<-s.loopDone
		return fmt.Errorf("unable to register application %d: %w", s.appID, err)
	}
	return nil
}

func (s *Server) doStopMainLoop(ctx context.Context) error {
	s.loopCancel()
	<-s.loopDone
	return nil
}

// dispatchLoop consumes both controller event channels and runs the
// matching handler synchronously per event.
func (s *Server) dispatchLoop(ctx context.Context) {
	logger.Tracef(ctx, "dispatchLoop")
	defer logger.Tracef(ctx, "/dispatchLoop")
	defer close(s.loopDone)

	gapEvents := s.gap.Events()
	gattsEvents := s.gatts.Events()
	for gapEvents != nil || gattsEvents != nil {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-gapEvents:
			if !ok {
				gapEvents = nil
				continue
			}
			s.handleGapEvent(ctx, ev)
		case ev, ok := <-gattsEvents:
			if !ok {
				gattsEvents = nil
				continue
			}
			s.handleGattsEvent(ctx, ev)
		}
	}
}

// IsConnected reports whether at least one central is connected.
func (s *Server) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ReceivedData drains the inbound buffer: it returns everything peers
// wrote to the receive characteristic since the previous call and
// clears the buffer.
func (s *Server) ReceivedData() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.recvBuf
	s.recvBuf = nil
	return data
}

// Send indicates data to every connection slot in order. At most one
// indication is in flight at any instant: Send blocks until the
// previous one is confirmed before issuing the next, with no timeout
// on the wait. It fails immediately when no central is connected.
func (s *Server) Send(ctx context.Context, data []byte) error {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	return s.indicate(ctx, data)
}

func (s *Server) indicate(ctx context.Context, data []byte) error {
	for slot := 0; slot < MaxConnections; slot++ {
		if err := s.indicateSlot(ctx, slot, data); err != nil {
			return err
		}
	}
	return nil
}

// indicateSlot sends one indication to the connection at slot, first
// waiting out any indication already in flight. It returns without
// sending when the slot is empty or registration has not produced the
// notify characteristic yet.
func (s *Server) indicateSlot(ctx context.Context, slot int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if s.table.len() <= slot {
			return nil
		}
		if s.gattIF == GattIFNone || s.notifyHandle == 0 {
			return nil
		}
		if !s.indPending {
			conn := s.table.conns[slot]
			if err := s.gatts.Indicate(ctx, s.gattIF, conn.connID, s.notifyHandle, data); err != nil {
				return fmt.Errorf("unable to indicate to %v: %w", conn.peer, err)
			}
			s.indPending = true
			s.indPeer = conn.peer
			logger.Debugf(ctx, "indication of %d bytes sent to %v", len(data), conn.peer)
			return nil
		}
		s.cond.Wait()
	}
}
