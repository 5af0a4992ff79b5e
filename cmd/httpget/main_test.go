package main

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nczempin/httpget/errors"
	"github.com/nczempin/httpget/protocol"
	"github.com/nczempin/httpget/transport"
)

var (
	errConnReset    error = syscall.ECONNRESET
	errBrokenPipe   error = syscall.EPIPE
	errTooManyFiles error = syscall.EMFILE
)

type testApp struct {
	*app
	stdout, stderr bytes.Buffer
	opened         int
}

func newTestApp(port int, open func(logrus.FieldLogger) (transport.Transport, error)) *testApp {
	ta := &testApp{}
	ta.app = &app{
		port: port,
		newTransport: func(log logrus.FieldLogger) (transport.Transport, error) {
			ta.opened++
			return open(log)
		},
		log: newLogger(&ta.stderr),
	}
	return ta
}

func netTransport(logrus.FieldLogger) (transport.Transport, error) {
	return transport.NewNetTransport(), nil
}

func (ta *testApp) run(argv ...string) int {
	return ta.app.run("httpget", argv, &ta.stdout)
}

// serveOnce accepts one connection, records the request and replies with
// response before closing.
func serveOnce(t *testing.T, response []byte) (int, <-chan string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	requests := make(chan string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		var req []byte
		buf := make([]byte, 512)
		for !bytes.HasSuffix(req, []byte("\r\n\r\n")) {
			n, err := conn.Read(buf)
			req = append(req, buf[:n]...)
			if err != nil {
				break
			}
		}
		requests <- string(req)
		conn.Write(response)
	}()

	return listener.Addr().(*net.TCPAddr).Port, requests
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{"no arguments", nil},
		{"two arguments", []string{"http://example.com/a", "http://example.com/b"}},
		{"option before url", []string{"--verbose", "http://example.com/a"}},
		{"separator before url", []string{"--", "http://" + transport.RandomHost() + "/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(protocol.DefaultPort, netTransport)
			assert.Equal(t, 1, ta.run(tt.argv...))
			assert.Equal(t, "Usage: httpget <URL>\n", ta.stderr.String())
			assert.Zero(t, ta.stdout.Len())
			assert.Zero(t, ta.opened, "no transport may be opened")
		})
	}
}

func TestRun_InvalidUrl(t *testing.T) {
	for _, raw := range []string{
		"",
		"example.com/index.html",
		"https://example.com/index.html",
		"http://example.com",
		"http://example.com/",
		"http://" + strings.Repeat("h", protocol.MaxFieldLen+1) + "/x",
		"http://example.com/" + strings.Repeat("p", protocol.MaxFieldLen+1),
		"--help",
		"-h",
		"-x",
		"--",
	} {
		t.Run(raw, func(t *testing.T) {
			ta := newTestApp(protocol.DefaultPort, netTransport)
			assert.Equal(t, 1, ta.run(raw))
			assert.Equal(t, "Invalid URL format.\n", ta.stderr.String())
			assert.Zero(t, ta.opened, "no transport may be opened")
		})
	}
}

func TestRun_UnresolvableHost(t *testing.T) {
	ta := newTestApp(protocol.DefaultPort, netTransport)

	assert.Equal(t, 1, ta.run("http://"+transport.RandomHost()+"/index.html"))
	assert.True(t, strings.HasPrefix(ta.stderr.String(), "Error: Unable to resolve host: "), ta.stderr.String())
	assert.Equal(t, 1, strings.Count(ta.stderr.String(), "\n"))
	assert.Zero(t, ta.stdout.Len())
}

func TestRun_ConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	ta := newTestApp(port, netTransport)

	assert.Equal(t, 1, ta.run("http://127.0.0.1/index.html"))
	assert.Equal(t, "Error: Unable to connect: connection refused\n", ta.stderr.String())
}

func TestRun_StreamsResponseVerbatim(t *testing.T) {
	response := []byte("HTTP/1.0 200 OK\r\nContent-Type: application/octet-stream\r\n\r\n")
	for i := 0; i < 3000; i++ {
		response = append(response, byte(i))
	}
	port, requests := serveOnce(t, response)

	ta := newTestApp(port, transport.New)

	require.Equal(t, 0, ta.run("http://127.0.0.1/index.html"), ta.stderr.String())
	assert.True(t, bytes.Equal(response, ta.stdout.Bytes()), "stdout differs from response")
	assert.Zero(t, ta.stderr.Len())
	assert.Equal(t, "GET /index.html HTTP/1.0\r\nHost: 127.0.0.1\r\n\r\n", <-requests)
}

func TestRun_SelectedBackendCompletesExchange(t *testing.T) {
	response := []byte("HTTP/1.0 200 OK\r\n\r\n" + strings.Repeat("x", 5000))
	port, requests := serveOnce(t, response)

	var selected transport.Transport
	ta := newTestApp(port, func(log logrus.FieldLogger) (transport.Transport, error) {
		tr, err := transport.New(log)
		selected = tr
		return tr, err
	})

	require.Equal(t, 0, ta.run("http://127.0.0.1/index.html"), ta.stderr.String())
	require.NotNil(t, selected)
	assert.Equal(t, len(response), ta.stdout.Len(), "backend %T", selected)
	assert.True(t, bytes.Equal(response, ta.stdout.Bytes()), "backend %T", selected)
	assert.Equal(t, "GET /index.html HTTP/1.0\r\nHost: 127.0.0.1\r\n\r\n", <-requests)
}

func TestRun_DoubledSlashReproduced(t *testing.T) {
	port, requests := serveOnce(t, []byte("HTTP/1.0 204 No Content\r\n\r\n"))

	ta := newTestApp(port, netTransport)

	require.Equal(t, 0, ta.run("http://127.0.0.1//index.html"), ta.stderr.String())
	assert.Equal(t, "GET //index.html HTTP/1.0\r\nHost: 127.0.0.1\r\n\r\n", <-requests)
}

func TestRun_ReadFailureAfterPartialResponse(t *testing.T) {
	mock := &transport.MockTransport{
		Chunks:  [][]byte{[]byte("HTTP/1.0 200 OK\r\n")},
		ReadErr: errors.NewTransportError(errors.TransportErrorSocketReadFailure, "read failed", fmt.Errorf("recv: %w", errConnReset)),
	}
	ta := newTestApp(protocol.DefaultPort, func(logrus.FieldLogger) (transport.Transport, error) {
		return mock, nil
	})

	assert.Equal(t, 1, ta.run("http://example.com/index.html"))
	assert.Equal(t, "HTTP/1.0 200 OK\r\n", ta.stdout.String())
	assert.Equal(t, "Error: Unable to read from socket: connection reset by peer\n", ta.stderr.String())
	assert.Equal(t, 1, mock.CloseCalls)
	assert.True(t, mock.Destroyed)
}

func TestRun_WriteFailure(t *testing.T) {
	mock := &transport.MockTransport{
		WriteErr: errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "write failed", errBrokenPipe),
	}
	ta := newTestApp(protocol.DefaultPort, func(logrus.FieldLogger) (transport.Transport, error) {
		return mock, nil
	})

	assert.Equal(t, 1, ta.run("http://example.com/index.html"))
	assert.Equal(t, "Error: Unable to write to socket: broken pipe\n", ta.stderr.String())
	assert.Equal(t, 1, mock.CloseCalls)
}

func TestRun_SocketFailure(t *testing.T) {
	mock := &transport.MockTransport{
		ConnectErr: errors.NewTransportError(errors.TransportErrorSocketCreateFailure, "failed to create socket", errTooManyFiles),
	}
	ta := newTestApp(protocol.DefaultPort, func(logrus.FieldLogger) (transport.Transport, error) {
		return mock, nil
	})

	assert.Equal(t, 1, ta.run("http://example.com/index.html"))
	assert.Equal(t, "Error: Unable to open socket: too many open files\n", ta.stderr.String())
	assert.Zero(t, mock.CloseCalls)
	assert.True(t, mock.Destroyed)
}

func TestRun_DebugTrace(t *testing.T) {
	port, _ := serveOnce(t, []byte("HTTP/1.0 200 OK\r\n\r\n"))

	ta := newTestApp(port, netTransport)
	ta.log.SetLevel(logrus.DebugLevel)

	require.Equal(t, 0, ta.run("http://127.0.0.1/index.html"))

	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(ta.stderr.String()), "\n") {
		messages = append(messages, strings.SplitN(line, " ", 2)[0])
	}
	assert.Equal(t, []string{"arguments", "url", "connected", "request", "response", "closed"}, messages)
	assert.Contains(t, ta.stderr.String(), "url parsed target=http://127.0.0.1/index.html\n")
}

func TestDiagnosticFormatter(t *testing.T) {
	var out bytes.Buffer
	log := newLogger(&out)
	log.SetLevel(logrus.DebugLevel)

	log.WithField("port", 80).WithField("host", "example.com").Debug("connected")
	log.Error("Invalid URL format.")

	assert.Equal(t, "connected host=example.com port=80\nInvalid URL format.\n", out.String())
}

func TestDiagnostic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"usage", errors.NewUsageError("expected exactly one URL argument, got 0", nil), "Usage: httpget <URL>"},
		{"invalid url", errors.NewInvalidUrlError("empty host"), "Invalid URL format."},
		{"output cause", errors.NewOutputError("failed to write response", io.ErrClosedPipe), "Error: Unable to write response: io: read/write on closed pipe"},
		{"message without cause", errors.NewTransportError(errors.TransportErrorSocketWriteFailure, "connection closed during write", nil), "Error: Unable to write to socket: connection closed during write"},
		{"errno", errors.NewTransportError(errors.TransportErrorSocketConnectFailure, "failed to connect", fmt.Errorf("dial: %w", syscall.ECONNREFUSED)), "Error: Unable to connect: connection refused"},
		{"foreign error", fmt.Errorf("boom"), "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diagnostic("httpget", tt.err))
		})
	}
}
