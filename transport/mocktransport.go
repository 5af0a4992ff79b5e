package transport

import (
	"bytes"

	petname "github.com/dustinkirkland/golang-petname"

	"github.com/nczempin/httpget/errors"
)

// assert MockTransport implements Transport
var _ Transport = &MockTransport{}

// RandomHost returns a host name under the reserved .invalid TLD, so it
// never resolves.
func RandomHost() string {
	return petname.Generate(2, "-") + ".invalid"
}

// MockTransport is an in-memory Transport. It serves Chunks in order, one per
// Read, then ReadErr, or end of stream when ReadErr is nil.
type MockTransport struct {
	ConnectErr error
	WriteErr   error
	Chunks     [][]byte
	ReadErr    error

	Host       string
	Port       int
	Written    bytes.Buffer
	ReadSizes  []int
	CloseCalls int
	Destroyed  bool

	connected bool
}

func (m *MockTransport) Connect(host string, port int) error {
	m.Host, m.Port = host, port
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.connected = true
	return nil
}

func (m *MockTransport) Write(buf []byte) (int, error) {
	if !m.connected {
		return 0, errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "not connected", nil)
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	return m.Written.Write(buf)
}

func (m *MockTransport) Read(buf []byte) (int, error) {
	m.ReadSizes = append(m.ReadSizes, len(buf))
	if !m.connected {
		return 0, errors.NewTransportError(errors.TransportErrorSocketReadFailure, "not connected", nil)
	}
	if len(m.Chunks) > 0 {
		n := copy(buf, m.Chunks[0])
		if n < len(m.Chunks[0]) {
			m.Chunks[0] = m.Chunks[0][n:]
		} else {
			m.Chunks = m.Chunks[1:]
		}
		return n, nil
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	return 0, errors.NewTransportError(errors.TransportErrorConnectionClosed, "connection closed by peer", nil)
}

// Close counts every call, including ones on an already closed mock.
func (m *MockTransport) Close() error {
	m.CloseCalls++
	m.connected = false
	return nil
}

func (m *MockTransport) Destroy() {
	if m.connected {
		m.Close()
	}
	m.Destroyed = true
}
