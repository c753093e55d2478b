// Package probecast provides an embeddable client for a wireless imaging
// probe.
//
// The client receives the device's notifications, converts the processed
// frames it streams into images off the notification goroutine, and runs the
// two longer conversations with the device: raw data export (request, read,
// persist) and still capture (start, finish). Everything the presentation
// layer needs is published to an observable [Store].
//
// # Basic Usage
//
//	dev := myDeviceSession() // implements probecast.Device
//
//	client, err := probecast.New(dev, probecast.Config{ExportDir: "/data/exports"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
//	for {
//	    <-client.Store().Image.Changed()
//	    img, _ := client.Store().Image.Load()
//	    render(img.Image)
//	}
//
// # Raw Data Export
//
// [Client.StartExport] runs at most one export at a time. The session moves
// Requested, then Found (or NotFound), Reading, Persisting and finally
// Complete or Failed. Each step is published to Store().Session and the
// copy progress to Store().Progress and Store().Transfer. Exports are written
// through a [SinkFactory]; by default files are created in Config.ExportDir.
//
// # Event Handling
//
// Implement [EventHandler] and pass it via [WithEventHandler] to be told
// about lifecycle transitions and finished exports. Embed [BaseEventHandler]
// to implement only some of the methods. Handlers are called synchronously
// from the client goroutines and should return quickly.
//
// # Lifecycle States
//
//   - StateStopped: initial state, or after Stop() completes
//   - StateStarting: Start() called, goroutines launching
//   - StateRunning: pipeline active
//   - StateStopping: Stop() called, waiting for goroutines
//   - StateCrashed: shutdown timed out
package probecast
