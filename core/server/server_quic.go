package server

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/core/traffic"

	"example.com/fuzzy-signal/net/flc"
)

const (
	quicStreamTimeout = 5 * time.Second
	quicIdleTimeout   = 30 * time.Second
)

// QUICServer answers evaluation requests received on QUIC streams, one
// request and one response per stream.
type QUICServer struct {
	listener *quic.Listener
	closed   atomic.Bool
	wg       sync.WaitGroup
	stop     func() bool

	mu    sync.Mutex
	conns map[quic.Connection]struct{}
}

func handleStreamQUIC(log *zap.Logger, mtrcs *quicServerMetrics,
	stream quic.Stream, c *traffic.Controller) error {
	defer stream.Close()

	err := stream.SetDeadline(time.Now().Add(quicStreamTimeout))
	if err != nil {
		return err
	}

	buf := make([]byte, flc.PacketLen)
	_, err = io.ReadFull(stream, buf)
	if err != nil {
		return err
	}

	var req flc.Packet
	err = flc.DecodePacket(&req, buf)
	if err != nil {
		return err
	}
	mtrcs.reqsAccepted.Inc()
	log.Debug("received request", zap.Object("data", flc.PacketMarshaler{Pkt: &req}))

	var resp flc.Packet
	HandleRequest(c, &req, &resp)
	if resp.Status != flc.StatusOK {
		mtrcs.reqsFailed.WithLabelValues(flc.StatusText(resp.Status)).Inc()
	}

	flc.EncodePacket(&buf, &resp)
	_, err = stream.Write(buf)
	if err != nil {
		return err
	}

	mtrcs.reqsServed.Inc()
	return nil
}

func isGracefulClose(err error) bool {
	var errApplication *quic.ApplicationError
	if errors.As(err, &errApplication) && errApplication.ErrorCode == 0 {
		return true
	}
	var errIdle *quic.IdleTimeoutError
	return errors.As(err, &errIdle)
}

func (s *QUICServer) serveConn(ctx context.Context, log *zap.Logger, mtrcs *quicServerMetrics,
	conn quic.Connection, c *traffic.Controller) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()
	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			if !isGracefulClose(err) && ctx.Err() == nil && !s.closed.Load() {
				log.Info("failed to accept stream",
					zap.Stringer("remote", conn.RemoteAddr()),
					zap.Error(err),
				)
			}
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			err := handleStreamQUIC(log, mtrcs, stream, c)
			if err != nil {
				log.Info("failed to handle stream",
					zap.Stringer("remote", conn.RemoteAddr()),
					zap.Error(err),
				)
			}
		}()
	}
}

func (s *QUICServer) run(ctx context.Context, log *zap.Logger, mtrcs *quicServerMetrics, c *traffic.Controller) {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || s.closed.Load() {
				return
			}
			log.Info("failed to accept connection", zap.Error(err))
			continue
		}
		mtrcs.connsAccepted.Inc()
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serveConn(ctx, log, mtrcs, conn, c)
	}
}

// StartQUICServer listens for QUIC connections on localAddr. The TLS
// configuration must carry a certificate; its protocol list is replaced by
// flc.ALPN.
func StartQUICServer(ctx context.Context, log *zap.Logger,
	localAddr *net.UDPAddr, config *tls.Config, c *traffic.Controller) (*QUICServer, error) {
	config = config.Clone()
	config.NextProtos = []string{flc.ALPN}
	if config.MinVersion < tls.VersionTLS13 {
		config.MinVersion = tls.VersionTLS13
	}

	listener, err := quic.ListenAddr(localAddr.String(), config, &quic.Config{
		MaxIdleTimeout: quicIdleTimeout,
	})
	if err != nil {
		return nil, err
	}

	log.Info("server listening via QUIC", zap.Stringer("local host", listener.Addr()))

	s := &QUICServer{
		listener: listener,
		conns:    make(map[quic.Connection]struct{}),
	}
	s.wg.Add(1)
	go s.run(ctx, log, quicMetrics.Load(), c)
	s.stop = context.AfterFunc(ctx, func() { _ = s.close() })
	return s, nil
}

func (s *QUICServer) LocalAddr() *net.UDPAddr {
	return s.listener.Addr().(*net.UDPAddr)
}

// Close stops accepting connections, closes the open ones and waits for
// in-flight requests.
func (s *QUICServer) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return s.close()
}

func (s *QUICServer) close() error {
	if s.closed.Swap(true) {
		s.wg.Wait()
		return nil
	}
	err := s.listener.Close()
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.CloseWithError(0, "server closed")
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}
