package transport

import (
	"github.com/sirupsen/logrus"
)

// RingQueueDepth is the submission queue size used by the io_uring backends.
const RingQueueDepth = 32

// Transport defines the interface for network transports
type Transport interface {
	// Connect resolves host and establishes a connection to it on port
	Connect(host string, port int) error

	// Write sends the whole of buf over the connection
	// Returns the number of bytes written
	Write(buf []byte) (int, error)

	// Read receives data from the connection
	// Returns the number of bytes read, or a ConnectionClosed error at end of stream
	Read(buf []byte) (int, error)

	// Close closes the connection. Closing twice is a no-op.
	Close() error

	// Destroy closes the connection and releases backend resources
	Destroy()
}

type backend struct {
	name string
	open func() (Transport, error)
}

var backends = []backend{
	{"iouring-go", func() (Transport, error) { return NewTcpTransport() }},
	{"go-uring", func() (Transport, error) { return NewTcpTransportV2() }},
	{"net", func() (Transport, error) { return NewNetTransport(), nil }},
}

// New returns the first backend that initializes on this host.
func New(log logrus.FieldLogger) (Transport, error) {
	var lastErr error
	for _, b := range backends {
		t, err := b.open()
		if err != nil {
			log.WithError(err).WithField("backend", b.name).Debug("transport backend unavailable")
			lastErr = err
			continue
		}
		log.WithField("backend", b.name).Debug("transport backend selected")
		return t, nil
	}
	return nil, lastErr
}
