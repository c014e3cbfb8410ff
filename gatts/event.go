package gatts

// Events delivered by the controller. The dispatch loop consumes them
// from the Gap and Gatts event channels and routes each to its handler;
// kinds the server does not react to are logged at debug level and
// dropped.

// A GapEvent is an event of the advertising subsystem.
type GapEvent interface {
	gapEvent()
}

// AdvConfigured reports completion of an advertising payload update.
type AdvConfigured struct {
	Status BTStatus
}

// AdvStarted reports the outcome of a start-advertising request.
type AdvStarted struct {
	Status BTStatus
}

// AdvStopped reports that advertising stopped, whether requested or
// not.
type AdvStopped struct {
	Status BTStatus
}

// ConnParamsUpdated reports completion of a connection parameter
// update.
type ConnParamsUpdated struct {
	Status BTStatus
	Addr   BDAddr
	Params ConnParams
}

func (AdvConfigured) gapEvent()     {}
func (AdvStarted) gapEvent()        {}
func (AdvStopped) gapEvent()        {}
func (ConnParamsUpdated) gapEvent() {}

// A GattsEvent is an event of the GATT server subsystem. Every event
// carries the interface of the application it was delivered for.
type GattsEvent interface {
	gattsEvent()
}

// AppRegistered reports completion of an application registration.
type AppRegistered struct {
	IF     GattIF
	Status GattStatus
	App    AppID
}

// ServiceCreated reports completion of a service creation and carries
// the handle assigned to the service.
type ServiceCreated struct {
	IF      GattIF
	Status  GattStatus
	Service AttrHandle
	ID      ServiceID
}

// ServiceStarted reports that a created service went live.
type ServiceStarted struct {
	IF      GattIF
	Status  GattStatus
	Service AttrHandle
}

// CharacteristicAdded reports completion of a characteristic addition
// and carries the handle assigned to its value attribute.
type CharacteristicAdded struct {
	IF      GattIF
	Status  GattStatus
	Attr    AttrHandle
	Service AttrHandle
	UUID    UUID
}

// DescriptorAdded reports completion of a descriptor addition.
type DescriptorAdded struct {
	IF      GattIF
	Status  GattStatus
	Attr    AttrHandle
	Service AttrHandle
	UUID    UUID
}

// MTUChanged reports the MTU negotiated on a connection.
type MTUChanged struct {
	IF   GattIF
	Conn ConnID
	MTU  uint16
}

// PeerConnected reports a new link.
type PeerConnected struct {
	IF   GattIF
	Conn ConnID
	Addr BDAddr
}

// PeerDisconnected reports a closed link.
type PeerDisconnected struct {
	IF     GattIF
	Conn   ConnID
	Addr   BDAddr
	Reason uint8
}

// ReadRequest asks the application to answer an attribute read.
type ReadRequest struct {
	IF       GattIF
	Conn     ConnID
	Trans    TransferID
	Addr     BDAddr
	Attr     AttrHandle
	Offset   uint16
	IsLong   bool
	NeedResp bool
}

// WriteRequest delivers an attribute write.
type WriteRequest struct {
	IF       GattIF
	Conn     ConnID
	Trans    TransferID
	Addr     BDAddr
	Attr     AttrHandle
	Offset   uint16
	NeedResp bool
	IsPrep   bool
	Value    []byte
}

// IndicationConfirmed reports that the peer acknowledged an
// indication.
type IndicationConfirmed struct {
	IF     GattIF
	Status GattStatus
	Conn   ConnID
	Addr   BDAddr
}

// ResponseSent reports completion of a SendResponse call.
type ResponseSent struct {
	IF     GattIF
	Status GattStatus
	Attr   AttrHandle
}

func (AppRegistered) gattsEvent()       {}
func (ServiceCreated) gattsEvent()      {}
func (ServiceStarted) gattsEvent()      {}
func (CharacteristicAdded) gattsEvent() {}
func (DescriptorAdded) gattsEvent()     {}
func (MTUChanged) gattsEvent()          {}
func (PeerConnected) gattsEvent()       {}
func (PeerDisconnected) gattsEvent()    {}
func (ReadRequest) gattsEvent()         {}
func (WriteRequest) gattsEvent()        {}
func (IndicationConfirmed) gattsEvent() {}
func (ResponseSent) gattsEvent()        {}
