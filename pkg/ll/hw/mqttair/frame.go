package mqttair

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
)

// Frame is the on-air encoding of one PDU over the MQTT transport:
// 4 bytes sender id, 4 bytes access address, 4 bytes check value, payload.
// All fixed fields are little endian.
type Frame struct {
	Sender        uint32
	AccessAddress uint32
	Check         uint32
	PDU           []byte
}

const frameHeaderSize = 12

// ErrShortFrame indicates a payload too small to carry a frame header.
var ErrShortFrame = errors.New("short frame")

// CheckValue computes the integrity check over a PDU, seeded with the CRC
// init value. It stands in for the link layer CRC on this transport.
func CheckValue(crcInit uint32, pdu []byte) uint32 {
	h := fnv.New32a()
	var seed [4]byte
	binary.LittleEndian.PutUint32(seed[:], crcInit)
	h.Write(seed[:])
	h.Write(pdu)
	return h.Sum32()
}

// Marshal returns the encoded frame.
func (f *Frame) Marshal() []byte {
	b := make([]byte, frameHeaderSize+len(f.PDU))
	binary.LittleEndian.PutUint32(b[0:], f.Sender)
	binary.LittleEndian.PutUint32(b[4:], f.AccessAddress)
	binary.LittleEndian.PutUint32(b[8:], f.Check)
	copy(b[frameHeaderSize:], f.PDU)
	return b
}

// Unmarshal decodes a frame.
func Unmarshal(b []byte) (*Frame, error) {
	if len(b) < frameHeaderSize {
		return nil, ErrShortFrame
	}
	return &Frame{
		Sender:        binary.LittleEndian.Uint32(b[0:]),
		AccessAddress: binary.LittleEndian.Uint32(b[4:]),
		Check:         binary.LittleEndian.Uint32(b[8:]),
		PDU:           b[frameHeaderSize:],
	}, nil
}

// CheckValid verifies the integrity check against a CRC init value.
func (f *Frame) CheckValid(crcInit uint32) bool {
	return f.Check == CheckValue(crcInit, f.PDU)
}
