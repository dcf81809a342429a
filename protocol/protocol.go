// Package protocol implements the framing used to stream trace events from
// the MCU to a host: VLQ-encoded payloads inside length-prefixed, CRC16
// protected frames terminated by a sync byte.
package protocol

// Version is the trace stream format version
const Version = "1"

// Frame layout constants
const (
	MessageHeaderSize  = 2 // length, sequence
	MessageTrailerSize = 3 // crc hi, crc lo, sync
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence mask
	MessageSeqMask = 0x0F

	// MessageMax is the size of a scratch output buffer
	MessageMax = 512
)

// Message is a parsed frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}
