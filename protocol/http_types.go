package protocol

const (
	// DefaultPort is the only port requests are sent to.
	DefaultPort = 80

	// MaxFieldLen bounds the host and path taken from a URL.
	MaxFieldLen = 99

	// ReadWindowSize is the size of the buffer each response read lands in.
	ReadWindowSize = 1024

	methodGet   = "GET"
	httpVersion = "HTTP/1.0"
)

// HttpRequest represents an HTTP/1.0 GET request. Host is sent as the only
// header; Path is sent after a leading slash.
type HttpRequest struct {
	Host string
	Path string
}
