package client

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/netip"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/core/traffic"

	"example.com/fuzzy-signal/net/flc"
	"example.com/fuzzy-signal/net/udp"
)

const maxNumRetries = 1

type IPClient struct {
	DSCP uint8
	// Histo, if set, records round trip times in microseconds.
	Histo *hdrhistogram.Histogram
}

func compareAddrs(x, y netip.Addr) int {
	return x.Unmap().Compare(y.Unmap())
}

func (c *IPClient) Evaluate(ctx context.Context, log *zap.Logger,
	localAddr, remoteAddr *net.UDPAddr, in traffic.Inputs) (traffic.Decision, error) {
	mtrcs := ipMetrics.Load()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: localAddr.IP, Zone: localAddr.Zone})
	if err != nil {
		return traffic.Decision{}, err
	}
	defer conn.Close()
	deadline, deadlineIsSet := ctx.Deadline()
	if deadlineIsSet {
		err = conn.SetDeadline(deadline)
		if err != nil {
			return traffic.Decision{}, err
		}
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()
	err = udp.SetDSCP(conn, c.DSCP)
	if err != nil {
		log.Info("failed to set DSCP", zap.Error(err))
	}

	remote := remoteAddr.AddrPort()
	remote = netip.AddrPortFrom(remote.Addr().Unmap(), remote.Port())

	req := newRequest(rand.Uint32(), in)
	buf := make([]byte, flc.PacketLen)
	flc.EncodePacket(&buf, &req)

	t0 := time.Now()
	n, err := conn.WriteToUDPAddrPort(buf, remote)
	if err != nil {
		return traffic.Decision{}, err
	}
	if n != len(buf) {
		return traffic.Decision{}, errWrite
	}
	mtrcs.reqsSent.Inc()

	numRetries := 0
	buf = make([]byte, 2048)
	for {
		buf = buf[:cap(buf)]
		n, srcAddr, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return traffic.Decision{}, ctx.Err()
			}
			return traffic.Decision{}, err
		}
		t1 := time.Now()
		buf = buf[:n]
		mtrcs.pktsReceived.Inc()

		if compareAddrs(srcAddr.Addr(), remote.Addr()) != 0 || srcAddr.Port() != remote.Port() {
			err = errUnexpectedPacketSource
			if numRetries != maxNumRetries && deadlineIsSet && time.Now().Before(deadline) {
				log.Info("received packet from unexpected source", zap.Stringer("from", srcAddr))
				numRetries++
				continue
			}
			return traffic.Decision{}, err
		}

		var resp flc.Packet
		err = flc.DecodePacket(&resp, buf)
		if err == nil {
			err = flc.ValidateResponse(&resp, req.ID)
		}
		if err != nil {
			if numRetries != maxNumRetries && deadlineIsSet && time.Now().Before(deadline) {
				log.Info("failed to decode packet payload", zap.Error(err))
				numRetries++
				continue
			}
			return traffic.Decision{}, err
		}

		mtrcs.respsAccepted.Inc()
		rtt := t1.Sub(t0)
		if c.Histo != nil {
			_ = c.Histo.RecordValue(rtt.Microseconds())
		}
		log.Debug("received response",
			zap.Stringer("from", srcAddr),
			zap.Duration("rtt", rtt),
			zap.Object("data", flc.PacketMarshaler{Pkt: &resp}),
		)

		return decision(&resp)
	}
}

// EvaluateIP requests a decision for in from the server at remoteAddr via
// UDP. The exchange fails at the deadline of ctx, if any.
func EvaluateIP(ctx context.Context, log *zap.Logger,
	localAddr, remoteAddr *net.UDPAddr, in traffic.Inputs) (traffic.Decision, error) {
	var c IPClient
	return c.Evaluate(ctx, log, localAddr, remoteAddr, in)
}
