// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [Device]: Issues requests to the imaging device session
//   - [Listener]: Receives the device notifications (implemented by the app)
//   - [ImageDecoder]: Decodes compressed image payloads
//   - [SinkFactory]: Creates named sinks that persist raw data payloads
//   - [ExportCatalog]: Records completed exports
//   - [Logger]: Structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement these interfaces
// with concrete implementations (file system, SQLite, zerolog, etc.).
//
// This separation enables:
//   - Testing application logic without a live device
//   - Swapping infrastructure without changing the pipeline
//   - Clear boundaries and dependency direction
package ports
