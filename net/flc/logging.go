package flc

import (
	"go.uber.org/zap/zapcore"
)

type PacketMarshaler struct {
	Pkt *Packet
}

func (m PacketMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint8("Version", m.Pkt.Version())
	enc.AddUint8("Mode", m.Pkt.Mode())
	enc.AddString("Status", StatusText(m.Pkt.Status))
	enc.AddUint8("Mask", m.Pkt.Mask)
	enc.AddUint32("ID", m.Pkt.ID)
	return enc.AddArray("Values", zapcore.ArrayMarshalerFunc(
		func(enc zapcore.ArrayEncoder) error {
			for i, x := range m.Pkt.Values {
				if m.Pkt.Has(i) {
					enc.AppendFloat64(x)
				}
			}
			return nil
		}))
}
