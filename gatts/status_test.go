package gatts

import (
	"context"
	"errors"
	"testing"
)

func TestCheckBTStatus(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		status  BTStatus
		wantErr bool
	}{
		{BTStatusSuccess, false},
		{BTStatusFail, true},
		{BTStatusNotReady, true},
		{BTStatusBusy, true},
		// Codes outside the classified set are tolerated.
		{BTStatusNoMemory, false},
		{BTStatusAuthRejected, false},
		{BTStatus(0xc8), false},
	} {
		err := checkBTStatus(ctx, tc.status)
		if tc.wantErr {
			if !errors.Is(err, ErrOperationFailed) {
				t.Errorf("checkBTStatus(%v) = %v, want ErrOperationFailed", tc.status, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("checkBTStatus(%v) = %v, want nil", tc.status, err)
		}
	}
}

func TestCheckGattStatus(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		status  GattStatus
		wantErr bool
	}{
		{GattStatusOK, false},
		{GattStatusError, true},
		{GattStatusInternalError, true},
		{GattStatusBusy, true},
		{GattStatusInvalidHandle, false},
		{GattStatusNotFound, false},
		{GattStatus(0x99), false},
	} {
		err := checkGattStatus(ctx, tc.status)
		if tc.wantErr {
			if !errors.Is(err, ErrOperationFailed) {
				t.Errorf("checkGattStatus(%v) = %v, want ErrOperationFailed", tc.status, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("checkGattStatus(%v) = %v, want nil", tc.status, err)
		}
	}
}

func TestStatusStrings(t *testing.T) {
	for _, tc := range []struct {
		got  string
		want string
	}{
		{BTStatusSuccess.String(), "success"},
		{BTStatusBusy.String(), "busy"},
		{BTStatus(0xc8).String(), "status 0xc8"},
		{GattStatusOK.String(), "ok"},
		{GattStatusInternalError.String(), "internal error"},
		{GattStatus(0x99).String(), "status 0x99"},
	} {
		if tc.got != tc.want {
			t.Errorf("status string = %q, want %q", tc.got, tc.want)
		}
	}
}
