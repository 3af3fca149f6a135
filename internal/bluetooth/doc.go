// Package bluetooth provides bounded Bluetooth discovery via bluetoothctl.
//
// Discovery is fire-and-forget: the Scanner opens a scan window for a
// configured duration in the background and switches it off again. The
// controller never parses results; a scan exists to wake sleeping audio
// hardware and refresh the adapter's device cache.
package bluetooth
