package protocol

import "testing"

func TestCRC16Empty(t *testing.T) {
	if crc := CRC16(nil); crc != 0xFFFF {
		t.Errorf("Expected 0xFFFF for empty input, got 0x%04X", crc)
	}
}

func TestCRC16KnownValue(t *testing.T) {
	// CRC-16/MCRF4XX check value
	if crc := CRC16([]byte("123456789")); crc != 0x6F91 {
		t.Errorf("Expected 0x6F91, got 0x%04X", crc)
	}
}

func TestCRC16Update(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}

	whole := CRC16(data)
	split := CRC16Update(CRC16(data[:2]), data[2:])
	if whole != split {
		t.Errorf("Incremental CRC mismatch: whole=%04X, split=%04X", whole, split)
	}
}

func TestCRC16Different(t *testing.T) {
	crc1 := CRC16([]byte{0x01, 0x02, 0x03})
	crc2 := CRC16([]byte{0x01, 0x02, 0x04})

	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}
