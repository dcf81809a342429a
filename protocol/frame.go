package protocol

import "errors"

var (
	ErrFrameTooLong = errors.New("frame payload too long")
	ErrIncomplete   = errors.New("incomplete frame")
	ErrBadLength    = errors.New("invalid frame length")
	ErrBadSequence  = errors.New("invalid frame sequence byte")
	ErrBadSync      = errors.New("missing frame sync byte")
	ErrBadCRC       = errors.New("frame CRC mismatch")
)

// BuildFrame wraps payload in a frame with the given sequence number
func BuildFrame(seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > MessagePayloadMax {
		return nil, ErrFrameTooLong
	}

	msgLen := MessageLengthMin + len(payload)
	frame := make([]byte, 0, msgLen)
	frame = append(frame, uint8(msgLen), MessageDest|(seq&MessageSeqMask))
	frame = append(frame, payload...)

	crc := CRC16(frame)
	frame = append(frame, uint8(crc>>8), uint8(crc), MessageValueSync)
	return frame, nil
}

// ParseFrame decodes the frame at the start of data and returns it with the
// number of bytes consumed. ErrIncomplete means more data is needed; any
// other error means the caller should drop a byte and resynchronize.
func ParseFrame(data []byte) (Message, int, error) {
	if len(data) < MessageLengthMin {
		return Message{}, 0, ErrIncomplete
	}

	msgLen := int(data[MessagePositionLen])
	if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
		return Message{}, 0, ErrBadLength
	}

	seq := data[MessagePositionSeq]
	if seq&^MessageSeqMask != MessageDest {
		return Message{}, 0, ErrBadSequence
	}

	if len(data) < msgLen {
		return Message{}, 0, ErrIncomplete
	}

	if data[msgLen-MessageTrailerSync] != MessageValueSync {
		return Message{}, 0, ErrBadSync
	}

	frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
		uint16(data[msgLen-MessageTrailerCRC+1])
	if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
		return Message{}, 0, ErrBadCRC
	}

	return Message{
		Length:   uint8(msgLen),
		Sequence: seq & MessageSeqMask,
		Payload:  data[MessageHeaderSize : msgLen-MessageTrailerSize],
		CRC:      frameCRC,
	}, msgLen, nil
}
