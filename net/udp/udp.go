package udp

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

const DSCPMax = 63

var (
	errInvalidDSCP    = errors.New("DSCP value out of range")
	errUnexpectedAddr = errors.New("unexpected local address")
)

func isIPv6(conn *net.UDPConn) (bool, error) {
	laddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return false, errUnexpectedAddr
	}
	return laddr.IP.To4() == nil, nil
}

// SetDSCP marks packets sent on conn with the Differentiated Services
// Codepoint dscp. The codepoint occupies the upper six bits of the IPv4 TOS
// byte and of the IPv6 traffic class.
func SetDSCP(conn *net.UDPConn, dscp uint8) error {
	if dscp > DSCPMax {
		return errInvalidDSCP
	}
	ipv6, err := isIPv6(conn)
	if err != nil {
		return err
	}
	sconn, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var res struct {
		err error
	}
	err = sconn.Control(func(fd uintptr) {
		res.err = setTrafficClass(int(fd), ipv6, int(dscp)<<2)
	})
	if err != nil {
		return err
	}
	return res.err
}

// DSCP returns the codepoint currently set on conn.
func DSCP(conn *net.UDPConn) (uint8, error) {
	ipv6, err := isIPv6(conn)
	if err != nil {
		return 0, err
	}
	sconn, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var res struct {
		tos int
		err error
	}
	err = sconn.Control(func(fd uintptr) {
		if ipv6 {
			res.tos, res.err = unix.GetsockoptInt(int(fd), unix.IPPROTO_IPV6, unix.IPV6_TCLASS)
		} else {
			res.tos, res.err = unix.GetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TOS)
		}
	})
	if err != nil {
		return 0, err
	}
	return uint8(res.tos >> 2), res.err
}
