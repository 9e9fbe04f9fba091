package client

import (
	"context"
	"crypto/tls"
	"io"
	"math/rand/v2"

	"github.com/google/gopacket"
	"github.com/quic-go/quic-go"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/core/traffic"

	"example.com/fuzzy-signal/net/flc"
)

// QUICClient sends evaluation requests over one QUIC connection, each on its
// own stream. It is safe for concurrent use.
type QUICClient struct {
	conn quic.Connection
	log  *zap.Logger
}

func DialQUIC(ctx context.Context, log *zap.Logger, remoteAddr string, config *tls.Config) (*QUICClient, error) {
	config = config.Clone()
	config.NextProtos = []string{flc.ALPN}
	if config.MinVersion < tls.VersionTLS13 {
		config.MinVersion = tls.VersionTLS13
	}
	conn, err := quic.DialAddr(ctx, remoteAddr, config, nil /* quicCfg */)
	if err != nil {
		return nil, err
	}
	log.Debug("connected via QUIC", zap.Stringer("to", conn.RemoteAddr()))
	return &QUICClient{conn: conn, log: log}, nil
}

func (c *QUICClient) Evaluate(ctx context.Context, in traffic.Inputs) (traffic.Decision, error) {
	mtrcs := quicMetrics.Load()

	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return traffic.Decision{}, err
	}
	defer stream.CancelRead(0)
	deadline, deadlineIsSet := ctx.Deadline()
	if deadlineIsSet {
		err = stream.SetDeadline(deadline)
		if err != nil {
			return traffic.Decision{}, err
		}
	}

	req := newRequest(rand.Uint32(), in)
	sb := gopacket.NewSerializeBuffer()
	err = gopacket.SerializeLayers(sb, gopacket.SerializeOptions{}, &flc.Layer{Packet: req})
	if err != nil {
		return traffic.Decision{}, err
	}
	buf := sb.Bytes()

	n, err := stream.Write(buf)
	if err != nil {
		return traffic.Decision{}, err
	}
	if n != len(buf) {
		return traffic.Decision{}, errWrite
	}
	err = stream.Close()
	if err != nil {
		return traffic.Decision{}, err
	}
	mtrcs.reqsSent.Inc()

	buf = make([]byte, flc.PacketLen)
	_, err = io.ReadFull(stream, buf)
	if err != nil {
		return traffic.Decision{}, err
	}
	var l flc.Layer
	err = l.DecodeFromBytes(buf, gopacket.NilDecodeFeedback)
	if err != nil {
		return traffic.Decision{}, err
	}
	resp := l.Packet
	err = flc.ValidateResponse(&resp, req.ID)
	if err != nil {
		return traffic.Decision{}, err
	}

	mtrcs.respsAccepted.Inc()
	c.log.Debug("received response", zap.Object("data", flc.PacketMarshaler{Pkt: &resp}))

	return decision(&resp)
}

func (c *QUICClient) Close() error {
	return c.conn.CloseWithError(0, "")
}

// EvaluateQUIC requests a decision for in from the server at remoteAddr on a
// fresh QUIC connection.
func EvaluateQUIC(ctx context.Context, log *zap.Logger,
	remoteAddr string, config *tls.Config, in traffic.Inputs) (traffic.Decision, error) {
	c, err := DialQUIC(ctx, log, remoteAddr, config)
	if err != nil {
		return traffic.Decision{}, err
	}
	defer c.Close()
	return c.Evaluate(ctx, in)
}
