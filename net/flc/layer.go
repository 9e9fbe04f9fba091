package flc

import (
	"github.com/google/gopacket"
)

var LayerTypeFLC = gopacket.RegisterLayerType(
	1310,
	gopacket.LayerTypeMetadata{
		Name:    "FLC",
		Decoder: gopacket.DecodeFunc(decodeFLC),
	},
)

// BaseLayer is a convenience struct which implements the LayerData and
// LayerPayload functions of the Layer interface.
// Copy-pasted from gopacket/layers (we avoid importing this due its massive size)
type BaseLayer struct {
	// Contents is the set of bytes that make up this layer.
	Contents []byte
	// Payload is the set of bytes contained by (but not part of) this
	// layer.
	Payload []byte
}

func (b *BaseLayer) LayerContents() []byte { return b.Contents }

func (b *BaseLayer) LayerPayload() []byte { return b.Payload }

// Layer exposes a Packet to gopacket serialization and decoding.
type Layer struct {
	BaseLayer
	Packet
}

func (l *Layer) LayerType() gopacket.LayerType {
	return LayerTypeFLC
}

func decodeFLC(data []byte, p gopacket.PacketBuilder) error {
	l := &Layer{}
	err := l.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}

	p.AddLayer(l)
	p.SetApplicationLayer(l)

	return nil
}

func (l *Layer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	data, err := b.PrependBytes(PacketLen)
	if err != nil {
		return err
	}
	EncodePacket(&data, &l.Packet)
	return nil
}

func (l *Layer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < PacketLen {
		df.SetTruncated()
		return errUnexpectedPacketSize
	}
	l.BaseLayer = BaseLayer{Contents: data[:PacketLen], Payload: data[PacketLen:]}
	return DecodePacket(&l.Packet, data[:PacketLen])
}

func (l *Layer) CanDecode() gopacket.LayerClass {
	return LayerTypeFLC
}

func (l *Layer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

func (l *Layer) Payload() []byte {
	return nil
}
