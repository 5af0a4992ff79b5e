package client

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/nczempin/httpget/protocol"
)

// HttpClient performs one GET exchange per call
type HttpClient struct {
	protocol *protocol.Http10Protocol
	log      logrus.FieldLogger
}

// NewHttpClient creates a new HTTP client with the given protocol
func NewHttpClient(proto *protocol.Http10Protocol, log logrus.FieldLogger) *HttpClient {
	return &HttpClient{
		protocol: proto,
		log:      log,
	}
}

// Get connects to target, sends the request and streams the raw response to
// w. Once connected, the connection is closed exactly once on every return
// path.
func (c *HttpClient) Get(target protocol.Target, w io.Writer) error {
	if err := target.Validate(); err != nil {
		return err
	}

	log := c.log.WithFields(logrus.Fields{"host": target.Host, "port": target.Port})

	if err := c.protocol.Connect(target.Host, target.Port); err != nil {
		return err
	}
	log.Debug("connected")

	defer func() {
		if err := c.protocol.Disconnect(); err != nil {
			log.WithError(err).Debug("close failed")
			return
		}
		log.Debug("closed")
	}()

	_, err := c.protocol.PerformRequest(target.Request(), w)
	return err
}
