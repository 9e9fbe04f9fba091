package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/libp2p/go-reuseport"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/core/traffic"

	"example.com/fuzzy-signal/net/flc"
	"example.com/fuzzy-signal/net/udp"
)

const (
	ipServerNumGoroutineDefault = 8
)

// IPServer answers evaluation requests received via UDP.
type IPServer struct {
	conns []*net.UDPConn
	wg    sync.WaitGroup
	stop  func() bool
}

func runIPServer(ctx context.Context, log *zap.Logger, mtrcs *ipServerMetrics,
	conn *net.UDPConn, dscp uint8, c *traffic.Controller) {
	err := udp.SetDSCP(conn, dscp)
	if err != nil {
		log.Info("failed to set DSCP", zap.Error(err))
	}

	buf := make([]byte, 2048)
	for {
		buf = buf[:cap(buf)]
		n, srcAddr, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			log.Error("failed to read packet", zap.Error(err))
			continue
		}
		buf = buf[:n]
		mtrcs.pktsReceived.Inc()

		var req flc.Packet
		err = flc.DecodePacket(&req, buf)
		if err != nil {
			log.Info("failed to decode packet payload", zap.Error(err))
			continue
		}

		mtrcs.reqsAccepted.Inc()
		log.Debug("received request",
			zap.Stringer("from", srcAddr),
			zap.Object("data", flc.PacketMarshaler{Pkt: &req}),
		)

		var resp flc.Packet
		HandleRequest(c, &req, &resp)
		if resp.Status != flc.StatusOK {
			mtrcs.reqsFailed.WithLabelValues(flc.StatusText(resp.Status)).Inc()
		}

		flc.EncodePacket(&buf, &resp)

		n, err = conn.WriteToUDPAddrPort(buf, srcAddr)
		if err != nil || n != len(buf) {
			log.Error("failed to write packet", zap.Error(err))
			continue
		}

		mtrcs.reqsServed.Inc()
	}
}

// StartIPServer listens on localHost and serves requests with numGoroutine
// goroutines, each reading from its own socket bound to the same port. When
// localHost has port 0 all sockets share the port picked for the first one.
func StartIPServer(ctx context.Context, log *zap.Logger,
	localHost *net.UDPAddr, numGoroutine int, dscp uint8, c *traffic.Controller) (*IPServer, error) {
	if numGoroutine <= 0 {
		numGoroutine = ipServerNumGoroutineDefault
	}

	mtrcs := ipMetrics.Load()
	s := &IPServer{}

	if numGoroutine == 1 {
		conn, err := net.ListenUDP("udp", localHost)
		if err != nil {
			return nil, err
		}
		s.conns = append(s.conns, conn)
	} else {
		var host string
		if localHost.IP != nil {
			host = localHost.IP.String()
		}
		addr := net.JoinHostPort(host, strconv.Itoa(localHost.Port))
		for range numGoroutine {
			conn, err := reuseport.ListenPacket("udp", addr)
			if err != nil {
				_ = s.close()
				return nil, err
			}
			s.conns = append(s.conns, conn.(*net.UDPConn))
			addr = conn.LocalAddr().String()
		}
	}

	log.Info("server listening via IP",
		zap.Stringer("local host", s.LocalAddr()),
		zap.Int("sockets", len(s.conns)),
	)

	for _, conn := range s.conns {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			runIPServer(ctx, log, mtrcs, conn, dscp, c)
		}()
	}
	s.stop = context.AfterFunc(ctx, func() { _ = s.close() })

	return s, nil
}

func (s *IPServer) LocalAddr() *net.UDPAddr {
	return s.conns[0].LocalAddr().(*net.UDPAddr)
}

// Close stops serving and waits for the serving goroutines to return.
func (s *IPServer) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return s.close()
}

func (s *IPServer) close() error {
	var errs []error
	for _, conn := range s.conns {
		err := conn.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	s.wg.Wait()
	return errors.Join(errs...)
}
