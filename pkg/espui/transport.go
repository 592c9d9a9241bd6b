package espui

// Transport is a bidirectional text-message link between the panel and
// an ESPUI device. Its lifecycle (handshake, reconnection, delivery)
// is the transport's own concern; the widget core only relies on the
// Send capability.
type Transport interface {
	Start() error
	Stop()
	Send(message string) error
	SubscribeToDeviceMessages() chan string
}
