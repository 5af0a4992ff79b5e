package transport

import (
	stderrors "errors"
	"fmt"
	"io"
	"net"

	"github.com/nczempin/httpget/errors"
)

// NetTransport implements Transport using the runtime's net package. It is
// the fallback when io_uring is unavailable.
type NetTransport struct {
	conn *net.TCPConn
}

// NewNetTransport creates a new NetTransport instance
func NewNetTransport() *NetTransport {
	return &NetTransport{}
}

// Connect establishes a TCP connection to the specified host and port
func (t *NetTransport) Connect(host string, port int) error {
	if t.conn != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			"already connected",
			nil,
		)
	}

	tcpAddr, err := resolve(host, port)
	if err != nil {
		return err
	}

	conn, err := net.DialTCP("tcp", nil, tcpAddr)
	if err != nil {
		if isSocketCreateErrno(err) {
			return errors.NewTransportError(
				errors.TransportErrorSocketCreateFailure,
				"failed to create socket",
				err,
			)
		}
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s", tcpAddr),
			err,
		)
	}

	if err := conn.SetNoDelay(true); err != nil {
		conn.Close()
		return errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set TCP_NODELAY",
			err,
		)
	}

	t.conn = conn
	return nil
}

// Write sends data over the TCP connection
func (t *NetTransport) Write(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"not connected",
			nil,
		)
	}

	n, err := t.conn.Write(buf)
	if err != nil {
		return n, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"write failed",
			err,
		)
	}

	return n, nil
}

// Read receives data from the TCP connection
func (t *NetTransport) Read(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return n, errors.NewTransportError(
				errors.TransportErrorConnectionClosed,
				"connection closed by peer",
				err,
			)
		}
		return n, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
	}

	return n, nil
}

// Close closes the TCP connection
func (t *NetTransport) Close() error {
	if t.conn == nil {
		return nil // Idempotent close
	}

	err := t.conn.Close()
	t.conn = nil

	if err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}

	return nil
}

// Destroy closes the connection; the net backend holds nothing else.
func (t *NetTransport) Destroy() {
	t.Close()
}
