package transport

import (
	"fmt"
	"os"
	"syscall"

	"github.com/godzie44/go-uring/uring"
	"github.com/nczempin/httpget/errors"
)

// TcpTransportV2 implements Transport using godzie44/go-uring for async I/O
type TcpTransportV2 struct {
	ring *uring.Ring
	file *os.File
}

// NewTcpTransportV2 creates a new TCP transport with io_uring (v2 using godzie44/go-uring)
func NewTcpTransportV2() (*TcpTransportV2, error) {
	ring, err := uring.New(RingQueueDepth)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorIoUringInit,
			"failed to initialize io_uring",
			err,
		)
	}

	return &TcpTransportV2{ring: ring}, nil
}

// complete queues op, submits it and waits for its completion event.
// Stream sockets ignore the offset, so ops are always queued at offset 0.
func (t *TcpTransportV2) complete(op uring.Operation) (int, error) {
	if err := t.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, fmt.Errorf("queue: %w", err)
	}

	if _, err := t.ring.Submit(); err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}

	cqe, err := t.ring.WaitCQEvents(1)
	if err != nil {
		return 0, fmt.Errorf("wait: %w", err)
	}
	defer t.ring.SeenCQE(cqe)

	if err := cqe.Error(); err != nil {
		return 0, err
	}

	return int(cqe.Res), nil
}

// Connect establishes a TCP connection
func (t *TcpTransportV2) Connect(host string, port int) error {
	if t.file != nil {
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

	// go-uring has no connect op; connect blocks like the rest of the exchange
	if err := syscall.Connect(fd, sa); err != nil {
		syscall.Close(fd)
		return errors.NewTransportError(
			errors.TransportErrorSocketConnectFailure,
			fmt.Sprintf("failed to connect to %s", tcpAddr),
			err,
		)
	}

	t.file = os.NewFile(uintptr(fd), "socket")
	return nil
}

// Write sends data over the connection using io_uring
func (t *TcpTransportV2) Write(buf []byte) (int, error) {
	if t.file == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketWriteFailure,
			"not connected",
			nil,
		)
	}

	totalWritten := 0
	for totalWritten < len(buf) {
		n, err := t.complete(uring.Write(t.file.Fd(), buf[totalWritten:], 0))
		if err != nil {
			return totalWritten, errors.NewTransportError(
				errors.TransportErrorSocketWriteFailure,
				"write operation failed",
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
func (t *TcpTransportV2) Read(buf []byte) (int, error) {
	if t.file == nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"not connected",
			nil,
		)
	}

	n, err := t.complete(uring.Read(t.file.Fd(), buf, 0))
	if err != nil {
		return 0, errors.NewTransportError(
			errors.TransportErrorSocketReadFailure,
			"read operation failed",
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
func (t *TcpTransportV2) Close() error {
	if t.file == nil {
		return nil
	}

	file := t.file
	t.file = nil
	if err := file.Close(); err != nil {
		return errors.NewTransportError(
			errors.TransportErrorSocketCloseFailure,
			"failed to close socket",
			err,
		)
	}

	return nil
}

// Destroy cleans up resources including the io_uring instance
func (t *TcpTransportV2) Destroy() {
	t.Close()
	if t.ring != nil {
		t.ring.Close()
		t.ring = nil
	}
}
