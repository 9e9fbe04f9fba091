package udp

import (
	"golang.org/x/sys/unix"
)

func setTrafficClass(fd int, ipv6 bool, tos int) error {
	if !ipv6 {
		return unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, tos)
	}
	err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_TCLASS, tos)
	if err != nil {
		return err
	}
	// Dual-stack sockets use the IPv4 TOS byte for IPv4-mapped peers. IPv6
	// only sockets reject the option.
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_TOS, tos)
	return nil
}
