package udp_test

import (
	"net"
	"testing"

	"example.com/fuzzy-signal/net/udp"
)

func TestSetDSCP(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer conn.Close()

	for _, dscp := range []uint8{0, 46, 63} {
		err = udp.SetDSCP(conn, dscp)
		if err != nil {
			t.Fatalf("SetDSCP(%d) failed: %v", dscp, err)
		}
		got, err := udp.DSCP(conn)
		if err != nil {
			t.Fatalf("DSCP() failed: %v", err)
		}
		if got != dscp {
			t.Errorf("DSCP() = %d, want %d", got, dscp)
		}
	}

	err = udp.SetDSCP(conn, udp.DSCPMax+1)
	if err == nil {
		t.Errorf("SetDSCP(%d) succeeded", udp.DSCPMax+1)
	}
}
