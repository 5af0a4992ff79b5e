package transport

import (
	stderrors "errors"
	"net"
	"strconv"
	"syscall"

	"github.com/nczempin/httpget/errors"
)

// resolve looks host up through the system resolver and returns one address.
func resolve(host string, port int) (*net.TCPAddr, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, errors.NewTransportError(
			errors.TransportErrorDnsFailure,
			"failed to resolve "+host,
			err,
		)
	}
	return tcpAddr, nil
}

// sockaddr converts a resolved address into a raw socket address and its family.
func sockaddr(addr *net.TCPAddr) (int, syscall.Sockaddr) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa4 := &syscall.SockaddrInet4{Port: addr.Port}
		copy(sa4.Addr[:], ip4)
		return syscall.AF_INET, sa4
	}
	sa6 := &syscall.SockaddrInet6{Port: addr.Port}
	copy(sa6.Addr[:], addr.IP.To16())
	return syscall.AF_INET6, sa6
}

// openSocket creates a blocking stream socket for family with TCP_NODELAY set.
func openSocket(family int) (int, error) {
	fd, err := syscall.Socket(family, syscall.SOCK_STREAM|syscall.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to create socket",
			err,
		)
	}

	if err := syscall.SetsockoptInt(fd, syscall.IPPROTO_TCP, syscall.TCP_NODELAY, 1); err != nil {
		syscall.Close(fd)
		return -1, errors.NewTransportError(
			errors.TransportErrorSocketCreateFailure,
			"failed to set TCP_NODELAY",
			err,
		)
	}

	return fd, nil
}

// isSocketCreateErrno reports errors raised by socket(2) rather than connect(2).
func isSocketCreateErrno(err error) bool {
	for _, errno := range []syscall.Errno{
		syscall.EMFILE,
		syscall.ENFILE,
		syscall.ENOBUFS,
		syscall.EAFNOSUPPORT,
		syscall.EPROTONOSUPPORT,
	} {
		if stderrors.Is(err, errno) {
			return true
		}
	}
	return false
}
