package gatts

// This file includes the identifiers of the IR recorder GATT profile.

var (
	// ServiceUUID identifies the primary service.
	ServiceUUID = MustParseUUID("ad91b201-7347-4047-9e17-3bed82d75f9d")

	// RecvCharacteristicUUID identifies the characteristic peers write
	// commands to.
	RecvCharacteristicUUID = MustParseUUID("b6fccb50-87be-44f3-ae22-f85485ea42c4")

	// NotifyCharacteristicUUID identifies the characteristic data is
	// indicated on.
	NotifyCharacteristicUUID = MustParseUUID("503de214-8682-46c4-828f-d59144da41be")

	attrClientCharacteristicConfigUUID = UUID16(0x2902)
)

const (
	// DefaultDeviceName is the GAP device name advertised unless
	// overridden with WithDeviceName.
	DefaultDeviceName = "ESP32-IR-Recorder"

	// MaxConnections bounds the connection table.
	MaxConnections = 2

	defaultAppID AppID = 0

	// characteristicMaxLen caps the payload of both characteristics.
	characteristicMaxLen = 200

	// serviceNumHandles is the attribute handle budget reserved when
	// creating the service.
	serviceNumHandles = 8

	// advFlag is the advertising Flags AD value: LE General
	// Discoverable Mode.
	advFlag = 0x02

	// cccdIndicationsEnabled is the exact descriptor value that
	// subscribes a peer to indications.
	cccdIndicationsEnabled uint16 = 0x0002
)

var defaultConnParams = ConnParams{
	MinInterval: 10,
	MaxInterval: 20,
	Latency:     0,
	Timeout:     400,
}
