// Package domain contains the core domain entities and value objects for probecast.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (device transport, file system,
// logging) and contains only data types and the rules attached to them.
//
// # Entities
//
//   - [ImageBuffer]: A producer-format image payload with its format metadata
//   - [DecodedImage]: A display-ready image paired with its capture timestamp
//   - [Event]: The tagged variant of every device notification
//   - [RawDataSession]: One raw data export, from request to persisted result
//   - [CaptureSession]: One still capture, from start to finish
//   - [Progress]: A bytes-transferred snapshot of an in-flight transfer
//
// # Design Principles
//
// Domain entities are:
//   - Plain values, safe to copy and publish as snapshots
//   - Free of infrastructure dependencies
//   - Focused on invariants (see [ImageBuffer.Validate])
//   - Testable without mocks or external systems
package domain
