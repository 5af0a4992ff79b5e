package protocol

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/nczempin/httpget/errors"
	"github.com/nczempin/httpget/transport"
)

// Http10Protocol implements HTTP/1.0 GET over a transport. The response is
// not parsed; it is copied to a writer one read window at a time.
type Http10Protocol struct {
	transport transport.Transport
	log       logrus.FieldLogger
	buffer    []byte
	window    []byte
}

// NewHttp10Protocol creates a new HTTP/1.0 protocol handler
func NewHttp10Protocol(t transport.Transport, log logrus.FieldLogger) *Http10Protocol {
	return &Http10Protocol{
		transport: t,
		log:       log,
		buffer:    make([]byte, 0, 2*MaxFieldLen+32),
		window:    make([]byte, ReadWindowSize),
	}
}

// Connect establishes a connection to the specified host and port
func (p *Http10Protocol) Connect(host string, port int) error {
	return p.transport.Connect(host, port)
}

// Disconnect closes the connection
func (p *Http10Protocol) Disconnect() error {
	return p.transport.Close()
}

// buildRequest formats an HTTP request into the internal buffer
func (p *Http10Protocol) buildRequest(req *HttpRequest) []byte {
	p.buffer = p.buffer[:0]

	p.buffer = append(p.buffer, methodGet...)
	p.buffer = append(p.buffer, " /"...)
	p.buffer = append(p.buffer, req.Path...)
	p.buffer = append(p.buffer, ' ')
	p.buffer = append(p.buffer, httpVersion...)
	p.buffer = append(p.buffer, "\r\n"...)

	p.buffer = append(p.buffer, "Host: "...)
	p.buffer = append(p.buffer, req.Host...)
	p.buffer = append(p.buffer, "\r\n"...)

	// Blank line
	p.buffer = append(p.buffer, "\r\n"...)

	return p.buffer
}

// SendRequest writes the whole request to the transport
func (p *Http10Protocol) SendRequest(req *HttpRequest) error {
	buf := p.buildRequest(req)
	n, err := p.transport.Write(buf)
	if err != nil {
		return err
	}
	p.log.WithField("bytes", n).Debug("request sent")
	return nil
}

// StreamResponse copies the response to w as it arrives, until the peer
// closes the connection. Bytes received before a read error are written
// before the error is returned.
func (p *Http10Protocol) StreamResponse(w io.Writer) (int64, error) {
	var total int64
	for {
		n, err := p.transport.Read(p.window)
		if n > 0 {
			if _, werr := w.Write(p.window[:n]); werr != nil {
				return total, errors.NewOutputError("failed to write response", werr)
			}
			total += int64(n)
		}

		if err != nil {
			if errors.IsConnectionClosed(err) {
				break
			}
			return total, err
		}

		if n == 0 {
			break
		}
	}

	p.log.WithField("bytes", total).Debug("response streamed")
	return total, nil
}

// PerformRequest sends req and streams the response to w
func (p *Http10Protocol) PerformRequest(req *HttpRequest, w io.Writer) (int64, error) {
	if err := p.SendRequest(req); err != nil {
		return 0, err
	}
	return p.StreamResponse(w)
}
