package gatts

import (
	"context"
	"errors"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// ErrOperationFailed is the generic failure every classified
// non-success platform status collapses into. Match with errors.Is.
var ErrOperationFailed = errors.New("operation failed")

// BTStatus is a status code of the radio/advertising subsystem.
type BTStatus uint8

const (
	BTStatusSuccess BTStatus = iota
	BTStatusFail
	BTStatusNotReady
	BTStatusNoMemory
	BTStatusBusy
	BTStatusDone
	BTStatusUnsupported
	BTStatusInvalidParam
	BTStatusUnhandled
	BTStatusAuthFailure
	BTStatusRemoteDeviceDown
	BTStatusAuthRejected
)

var btStatusName = map[BTStatus]string{
	BTStatusSuccess:          "success",
	BTStatusFail:             "fail",
	BTStatusNotReady:         "not ready",
	BTStatusNoMemory:         "no memory",
	BTStatusBusy:             "busy",
	BTStatusDone:             "done",
	BTStatusUnsupported:      "unsupported",
	BTStatusInvalidParam:     "invalid parameter",
	BTStatusUnhandled:        "unhandled",
	BTStatusAuthFailure:      "authentication failure",
	BTStatusRemoteDeviceDown: "remote device down",
	BTStatusAuthRejected:     "authentication rejected",
}

func (s BTStatus) String() string {
	if name, ok := btStatusName[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%02x", uint8(s))
}

// GattStatus is a status code of the GATT subsystem. The values below
// 0x80 double as attribute protocol error codes sent to the peer.
type GattStatus uint8

const (
	GattStatusOK                  GattStatus = 0x00
	GattStatusInvalidHandle       GattStatus = 0x01
	GattStatusReadNotPermitted    GattStatus = 0x02
	GattStatusWriteNotPermitted   GattStatus = 0x03
	GattStatusInvalidPDU          GattStatus = 0x04
	GattStatusInsufAuthentication GattStatus = 0x05
	GattStatusReqNotSupported     GattStatus = 0x06
	GattStatusInvalidOffset       GattStatus = 0x07
	GattStatusNotFound            GattStatus = 0x0a
	GattStatusNoResources         GattStatus = 0x80
	GattStatusInternalError       GattStatus = 0x81
	GattStatusWrongState          GattStatus = 0x82
	GattStatusDBFull              GattStatus = 0x83
	GattStatusBusy                GattStatus = 0x84
	GattStatusError               GattStatus = 0x85
)

var gattStatusName = map[GattStatus]string{
	GattStatusOK:                  "ok",
	GattStatusInvalidHandle:       "invalid handle",
	GattStatusReadNotPermitted:    "read not permitted",
	GattStatusWriteNotPermitted:   "write not permitted",
	GattStatusInvalidPDU:          "invalid PDU",
	GattStatusInsufAuthentication: "insufficient authentication",
	GattStatusReqNotSupported:     "request not supported",
	GattStatusInvalidOffset:       "invalid offset",
	GattStatusNotFound:            "not found",
	GattStatusNoResources:         "no resources",
	GattStatusInternalError:       "internal error",
	GattStatusWrongState:          "wrong state",
	GattStatusDBFull:              "database full",
	GattStatusBusy:                "busy",
	GattStatusError:               "error",
}

func (s GattStatus) String() string {
	if name, ok := gattStatusName[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%02x", uint8(s))
}

// checkBTStatus translates a radio status into an outcome: success is
// a pass, the classified failure codes fail, anything else is treated
// as success with a warning.
func checkBTStatus(ctx context.Context, status BTStatus) error {
	switch status {
	case BTStatusSuccess:
		return nil
	case BTStatusFail, BTStatusNotReady, BTStatusBusy:
		logger.Warnf(ctx, "radio operation failed: %v", status)
		return fmt.Errorf("%w: %v", ErrOperationFailed, status)
	default:
		logger.Warnf(ctx, "unexpected radio status %v, assuming success", status)
		return nil
	}
}

// checkGattStatus is checkBTStatus for the GATT subsystem.
func checkGattStatus(ctx context.Context, status GattStatus) error {
	switch status {
	case GattStatusOK:
		return nil
	case GattStatusError, GattStatusInternalError, GattStatusBusy:
		logger.Warnf(ctx, "GATT operation failed: %v", status)
		return fmt.Errorf("%w: %v", ErrOperationFailed, status)
	default:
		logger.Warnf(ctx, "unexpected GATT status %v, assuming success", status)
		return nil
	}
}
