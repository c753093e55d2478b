package probecast

// Option configures optional behavior of a Client.
type Option func(*options)

// options holds the optional configuration for a Client.
type options struct {
	logger       Logger
	decoder      ImageDecoder
	sinks        SinkFactory
	catalog      ExportCatalog
	eventHandler EventHandler
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDecoder sets the decoder for compressed frames.
// If not provided, JPEG, PNG and GIF are decoded with the standard library
// (or OpenCV when built with the gocv tag).
func WithDecoder(decoder ImageDecoder) Option {
	return func(o *options) {
		o.decoder = decoder
	}
}

// WithSinkFactory sets where exports are written, replacing Config.ExportDir.
func WithSinkFactory(sinks SinkFactory) Option {
	return func(o *options) {
		o.sinks = sinks
	}
}

// WithCatalog records every completed export in catalog.
func WithCatalog(catalog ExportCatalog) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithEventHandler sets a handler for client events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
