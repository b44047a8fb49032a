package adsb

// Mode S CRC-24 generator polynomial.
const modesPoly = 0xfff409

var crcTable [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 16
		for j := 0; j < 8; j++ {
			if c&0x800000 != 0 {
				c = (c << 1) ^ modesPoly
			} else {
				c <<= 1
			}
		}
		crcTable[i] = c & 0x00ffffff
	}
}

// checksum computes the Mode S CRC-24 over data. For a complete frame
// with the parity bytes included, a zero remainder means the frame is
// intact (the parity of DF11 replies carries the interrogator code in
// the low 7 bits, and the parity of surveillance replies is overlaid
// with the aircraft address).
func checksum(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = ((crc << 8) & 0xffffff) ^ crcTable[byte(crc>>16)^b]
	}
	return crc
}

// overlayAddress recovers the ICAO address from a frame whose parity
// field is XORed with the address (DF0/4/5/16/20/21). It computes the
// checksum of the frame body and XORs it with the received parity.
func overlayAddress(data []byte) ICAO {
	n := len(data)
	if n < 3 {
		return 0
	}
	crc := checksum(data[:n-3])
	ap := uint32(data[n-3])<<16 | uint32(data[n-2])<<8 | uint32(data[n-1])
	return ICAO((crc ^ ap) & 0xffffff)
}
