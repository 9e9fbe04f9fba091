package udp

import (
	"golang.org/x/sys/unix"
)

func setTrafficClass(fd int, ipv6 bool, tos int) error {
	if ipv6 {
		return unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, tos)
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, tos)
}
