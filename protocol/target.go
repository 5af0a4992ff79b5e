package protocol

import (
	"fmt"
	"strings"

	"github.com/nczempin/httpget/errors"
)

const schemePrefix = "http://"

// Target is where a request goes, taken from a URL of the form
// http://<host>/<path>.
type Target struct {
	Host string
	Path string
	Port int
}

// ParseTarget splits raw into host and path. The host runs up to the first
// slash after the scheme; the path runs from there to the first newline.
// Both must be non-empty and at most MaxFieldLen bytes. Port is always
// DefaultPort, so "host:8080" stays part of the host.
func ParseTarget(raw string) (Target, error) {
	rest, ok := strings.CutPrefix(raw, schemePrefix)
	if !ok {
		return Target{}, errors.NewInvalidUrlError("missing " + schemePrefix + " prefix")
	}

	host, path, ok := strings.Cut(rest, "/")
	if !ok {
		return Target{}, errors.NewInvalidUrlError("missing / after host")
	}

	if i := strings.IndexByte(path, '\n'); i >= 0 {
		path = path[:i]
	}

	t := Target{Host: host, Path: path, Port: DefaultPort}
	if err := t.Validate(); err != nil {
		return Target{}, err
	}
	return t, nil
}

// Validate checks the host and path bounds.
func (t Target) Validate() error {
	if err := checkField("host", t.Host); err != nil {
		return err
	}
	return checkField("path", t.Path)
}

func checkField(name, value string) error {
	if value == "" {
		return errors.NewInvalidUrlError("empty " + name)
	}
	if len(value) > MaxFieldLen {
		return errors.NewInvalidUrlError(fmt.Sprintf("%s longer than %d bytes", name, MaxFieldLen))
	}
	return nil
}

// Request returns the GET request for t.
func (t Target) Request() *HttpRequest {
	return &HttpRequest{Host: t.Host, Path: t.Path}
}

func (t Target) String() string {
	return schemePrefix + t.Host + "/" + t.Path
}
