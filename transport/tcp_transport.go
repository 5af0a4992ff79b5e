package transport

import (
	"fmt"
	"syscall"

	"github.com/iceber/iouring-go"
	"github.com/nczempin/httpget/errors"
)

// TcpTransport implements Transport using io_uring for async I/O
type TcpTransport struct {
	iour *iouring.IOURing
	fd   int
}

// NewTcpTransport creates a new TCP transport with io_uring
func NewTcpTransport() (*TcpTransport, error) {
	iour, err := iouring.New(RingQueueDepth)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &TcpTransport{
		iour: iour,
		fd:   -1,
	}, nil
}

// submit hands one prepared request to the ring and blocks until it completes.
func (t *TcpTransport) submit(prep iouring.PrepRequest) (iouring.Request, error) {
	ch := make(chan iouring.Result, 1)
	req, err := t.iour.SubmitRequest(prep, ch)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	<-ch
	return req, nil
}

// transfer runs a send or recv and returns the byte count. Send and recv
// carry no resolver, so the raw completion result is decoded here.
func (t *TcpTransport) transfer(prep iouring.PrepRequest) (int, error) {
	req, err := t.submit(prep)
	if err != nil {
		return 0, err
	}
	res, err := req.GetRes()
	if err != nil {
		return 0, err
	}
	if res < 0 {
		return 0, syscall.Errno(-res)
	}
	return res, nil
}

// connect results carry no value, only an errno
func (t *TcpTransport) connect(fd int, sa syscall.Sockaddr) error {
	prep, err := iouring.Connect(fd, sa)
	if err != nil {
		return err
	}
	req, err := t.submit(prep)
	if err != nil {
		return err
	}
	return req.Err()
}

// Connect establishes a TCP connection using io_uring
func (t *TcpTransport) Connect(host string, port int) error {
	if t.fd >= 0 {
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

	family, sa := sockaddr(tcpAddr)
	fd, err := openSocket(family)
	if err != nil {
		return err
	}

	if err := t.connect(fd, sa); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s", tcpAddr),
			err,
		)
	}

	t.fd = fd
	return nil
}

// Write sends data over the connection using io_uring
func (t *TcpTransport) Write(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"not connected",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.transfer(iouring.Send(t.fd, buf[totalWritten:], 0))
		if err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write failed",
				err,
			)
		}

		if n <= 0 {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"connection closed during write",
				nil,
			)
		}

		totalWritten += n
	}

	return totalWritten, nil
}

// Read receives data from the connection using io_uring
func (t *TcpTransport) Read(buf []byte) (int, error) {
	if t.fd < 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}

	n, err := t.transfer(iouring.Recv(t.fd, buf, 0))
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read failed",
			err,
		)
	}

	if n == 0 && len(buf) > 0 {
		return 0, errors.NewTransportError(
			errors.TransportErrorConnectionClosed,
			"connection closed by peer",
			nil,
		)
	}

	return n, nil
}

// Close closes the connection
func (t *TcpTransport) Close() error {
	if t.fd < 0 {
		return nil // Already closed or never connected
	}

	fd := t.fd
	t.fd = -1
	if err := syscall.Close(fd); err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}

	return nil
}

// Destroy cleans up resources including the io_uring instance
func (t *TcpTransport) Destroy() {
	t.Close()
	if t.iour != nil {
		t.iour.Close()
		t.iour = nil
	}
}
