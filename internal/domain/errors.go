package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the probecast domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running client.
	ErrAlreadyRunning = errors.New("probecast: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped client.
	ErrNotRunning = errors.New("probecast: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("probecast: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("probecast: invalid configuration")

	// ErrBadImageData is the cause of every failed image conversion.
	ErrBadImageData = errors.New("bad image data")

	// ErrQueueFull is returned when the conversion queue cannot take another frame.
	ErrQueueFull = errors.New("probecast: conversion queue full")

	// ErrRawDataUnavailable is reported when the device finds no raw data to export.
	ErrRawDataUnavailable = errors.New("raw data unavailable, ensure raw data buffering is enabled and the probe is frozen")

	// ErrRawDataRead is reported when the device fails to deliver the raw data payload.
	ErrRawDataRead = errors.New("could not retrieve raw data")

	// ErrExportInProgress is returned when an export is started while another is active.
	ErrExportInProgress = errors.New("probecast: raw data export already in progress")

	// ErrCaptureInProgress is returned when a capture is started while another is active.
	ErrCaptureInProgress = errors.New("probecast: capture already in progress")

	// ErrNoFrame is returned when a capture needs the latest frame and none was displayed yet.
	ErrNoFrame = errors.New("probecast: no frame displayed yet")

	// ErrAbandoned ends a session that was still waiting on the device when the client stopped.
	ErrAbandoned = errors.New("abandoned by shutdown")
)

// ConversionError reports an image payload that could not be turned into an image.
// It never stops the pipeline: the frame is dropped and the error is published.
type ConversionError struct {
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil && e.Err != ErrBadImageData {
		return fmt.Sprintf("convert image: %s: %v", e.Reason, e.Err)
	}
	return "convert image: " + e.Reason
}

func (e *ConversionError) Unwrap() error { return e.Err }

// ProtocolError ends a raw data session that the device could not serve.
type ProtocolError struct {
	Step string
	Err  error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("raw data %s: %v", e.Step, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// PersistenceError ends a raw data session whose payload could not be written.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist raw data: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UsageError is returned synchronously when a call is not allowed in the current state.
// The state is left unchanged.
type UsageError struct {
	Op  string
	Err error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UsageError) Unwrap() error { return e.Err }
