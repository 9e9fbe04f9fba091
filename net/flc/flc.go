// Package flc implements the fixed-size fuzzy logic controller packet used
// to request traffic signal decisions over the network.
package flc

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	ServerPortIP   = 10123
	ServerPortQUIC = 10124

	// ALPN identifies the protocol on QUIC connections.
	ALPN = "flc/1"

	PacketLen = 48

	VersionMin = 1
	VersionMax = 1

	ModeReserved0 = 0
	ModeRequest   = 1
	ModeResponse  = 2

	StatusOK          = 0
	StatusMissing     = 1
	StatusNoRuleFired = 2
	StatusInvalid     = 3
	StatusBadRequest  = 4

	NumValues = 5

	// Response value slots.
	GreenLight = 0
	Priority   = 1
)

type Packet struct {
	VM       uint8
	Status   uint8
	Mask     uint8
	Reserved uint8
	ID       uint32
	Values   [NumValues]float64
}

var (
	errUnexpectedPacketSize = errors.New("unexpected packet size")
	errUnexpectedRequest    = errors.New("unexpected request structure")
	errUnexpectedResponse   = errors.New("unexpected response structure")
)

func EncodePacket(b *[]byte, pkt *Packet) {
	if cap(*b) < PacketLen {
		*b = make([]byte, PacketLen)
	} else {
		*b = (*b)[:PacketLen]
	}

	buf := *b
	_ = buf[47]
	buf[0] = pkt.VM
	buf[1] = pkt.Status
	buf[2] = pkt.Mask
	buf[3] = pkt.Reserved
	binary.BigEndian.PutUint32(buf[4:], pkt.ID)
	for i, x := range pkt.Values {
		binary.BigEndian.PutUint64(buf[8+8*i:], math.Float64bits(x))
	}
}

func DecodePacket(pkt *Packet, b []byte) error {
	if len(b) != PacketLen {
		return errUnexpectedPacketSize
	}

	_ = b[47]
	pkt.VM = b[0]
	pkt.Status = b[1]
	pkt.Mask = b[2]
	pkt.Reserved = b[3]
	pkt.ID = binary.BigEndian.Uint32(b[4:])
	for i := range pkt.Values {
		pkt.Values[i] = math.Float64frombits(binary.BigEndian.Uint64(b[8+8*i:]))
	}

	return nil
}

func (p *Packet) Version() uint8 {
	return (p.VM >> 3) & 0b0000_0111
}

func (p *Packet) SetVersion(v uint8) {
	if v&0b0000_0111 != v {
		panic("unexpected FLC version value")
	}
	p.VM = (p.VM & 0b1100_0111) | (v << 3)
}

func (p *Packet) Mode() uint8 {
	return p.VM & 0b0000_0111
}

func (p *Packet) SetMode(m uint8) {
	if m&0b0000_0111 != m {
		panic("unexpected FLC mode value")
	}
	p.VM = (p.VM & 0b1111_1000) | m
}

// Has reports whether value slot i is present.
func (p *Packet) Has(i int) bool {
	return p.Mask&(1<<i) != 0
}

// SetValue stores x in slot i and marks it present.
func (p *Packet) SetValue(i int, x float64) {
	if i < 0 || i >= NumValues {
		panic("unexpected FLC value slot")
	}
	p.Values[i] = x
	p.Mask |= 1 << i
}

func NewRequest(id uint32) Packet {
	var p Packet
	p.SetVersion(VersionMax)
	p.SetMode(ModeRequest)
	p.ID = id
	return p
}

// NewResponse returns a response to req with the given status and no
// values.
func NewResponse(req *Packet, status uint8) Packet {
	var p Packet
	p.SetVersion(VersionMax)
	p.SetMode(ModeResponse)
	p.Status = status
	p.ID = req.ID
	return p
}

func ValidateRequest(req *Packet) error {
	vn := req.Version()
	if vn < VersionMin || VersionMax < vn {
		return errUnexpectedRequest
	}
	if req.Mode() != ModeRequest {
		return errUnexpectedRequest
	}
	if req.Status != StatusOK || req.Reserved != 0 {
		return errUnexpectedRequest
	}
	if req.Mask>>NumValues != 0 {
		return errUnexpectedRequest
	}
	return nil
}

func ValidateResponse(resp *Packet, id uint32) error {
	vn := resp.Version()
	if vn < VersionMin || VersionMax < vn {
		return errUnexpectedResponse
	}
	if resp.Mode() != ModeResponse {
		return errUnexpectedResponse
	}
	if resp.ID != id {
		return errUnexpectedResponse
	}
	if resp.Status > StatusBadRequest {
		return errUnexpectedResponse
	}
	if resp.Status == StatusOK && (!resp.Has(GreenLight) || !resp.Has(Priority)) {
		return errUnexpectedResponse
	}
	return nil
}

func StatusText(status uint8) string {
	switch status {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing input"
	case StatusNoRuleFired:
		return "no rule fired"
	case StatusInvalid:
		return "invalid input"
	case StatusBadRequest:
		return "bad request"
	default:
		return "unknown status"
	}
}
