package cubetimer

import "errors"

// Sentinel errors for the cubetimer package.
var (
	// Session log errors
	ErrResultNotFound   = errors.New("cubetimer: result not found")
	ErrNothingToRestore = errors.New("cubetimer: no deleted result to restore")
	ErrInvalidPenalty   = errors.New("cubetimer: invalid penalty")

	// Session loop errors
	ErrSessionClosed = errors.New("cubetimer: session closed")

	// Device errors
	ErrNotConnected     = errors.New("cubetimer: not connected to device")
	ErrDeviceNotFound   = errors.New("cubetimer: device not found")
	ErrConnectTimeout   = errors.New("cubetimer: connection timed out")
	ErrScanInProgress   = errors.New("cubetimer: scan already in progress")
	ErrConnectCancelled = errors.New("cubetimer: connection attempt cancelled")
)
