// Command httpget fetches http://<host>/<path> with a single HTTP/1.0 GET
// and writes the raw response, status line and headers included, to stdout.
package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strings"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/nczempin/httpget/client"
	"github.com/nczempin/httpget/errors"
	"github.com/nczempin/httpget/protocol"
	"github.com/nczempin/httpget/transport"
)

type args struct {
	URL string `arg:"positional,required" help:"URL of the form http://<host>/<path>"`
}

func (args) Description() string {
	return "Sends one HTTP/1.0 GET request and prints the raw response."
}

// diagnosticFormatter prints one bare line per entry, followed by any fields.
type diagnosticFormatter struct{}

func (diagnosticFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func newLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(diagnosticFormatter{})
	log.SetLevel(logrus.InfoLevel)
	return log
}

type app struct {
	port         int
	newTransport func(logrus.FieldLogger) (transport.Transport, error)
	log          *logrus.Logger
}

// run performs one invocation and returns the process exit code.
func (a *app) run(prog string, argv []string, stdout io.Writer) int {
	if err := a.fetch(prog, argv, stdout); err != nil {
		a.log.Error(diagnostic(prog, err))
		return 1
	}
	return 0
}

func (a *app) fetch(prog string, argv []string, stdout io.Writer) error {
	if len(argv) != 1 {
		return errors.NewUsageError(fmt.Sprintf("expected exactly one URL argument, got %d", len(argv)), nil)
	}

	// The lone argument is always the URL, even when it looks like an option.
	var cli args
	parser, err := arg.NewParser(arg.Config{Program: prog}, &cli)
	if err != nil {
		return err
	}
	if err := parser.Parse([]string{"--", argv[0]}); err != nil {
		return errors.NewUsageError("expected exactly one URL argument", err)
	}
	a.log.Debug("arguments checked")

	target, err := protocol.ParseTarget(cli.URL)
	if err != nil {
		return err
	}
	target.Port = a.port
	a.log.WithField("target", target).Debug("url parsed")

	trans, err := a.newTransport(a.log)
	if err != nil {
		return err
	}
	defer trans.Destroy()

	c := client.NewHttpClient(protocol.NewHttp10Protocol(trans, a.log), a.log)
	return c.Get(target, stdout)
}

// diagnostic renders err as the single line printed on failure.
func diagnostic(prog string, err error) string {
	switch errors.TypeOf(err) {
	case errors.ErrorUsage:
		return fmt.Sprintf("Usage: %s <URL>", prog)
	case errors.ErrorInvalidUrl:
		return "Invalid URL format."
	case errors.ErrorOutput:
		return "Error: Unable to write response: " + cause(err)
	}

	switch errors.TransportCode(err) {
	case errors.TransportErrorDnsFailure:
		return "Error: Unable to resolve host: " + cause(err)
	case errors.TransportErrorSocketCreateFailure:
		return "Error: Unable to open socket: " + cause(err)
	case errors.TransportErrorSocketConnectFailure:
		return "Error: Unable to connect: " + cause(err)
	case errors.TransportErrorSocketWriteFailure:
		return "Error: Unable to write to socket: " + cause(err)
	case errors.TransportErrorSocketReadFailure:
		return "Error: Unable to read from socket: " + cause(err)
	}

	return "Error: " + err.Error()
}

// cause describes the system-level reason behind err, preferring the errno
// text the way perror(3) does.
func cause(err error) string {
	var errno syscall.Errno
	if stderrors.As(err, &errno) {
		return errno.Error()
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return dnsErr.Err
	}

	var httpErr *errors.HttpError
	if stderrors.As(err, &httpErr) {
		if under := httpErr.Cause(); under != error(httpErr) {
			return under.Error()
		}
		return httpErr.Message
	}
	return err.Error()
}

func main() {
	a := &app{
		port:         protocol.DefaultPort,
		newTransport: transport.New,
		log:          newLogger(os.Stderr),
	}
	os.Exit(a.run(os.Args[0], os.Args[1:], os.Stdout))
}
