// Package archive writes ZIP containers with stored (uncompressed) entries.
package archive

// crcPolynomial is the reflected IEEE 802.3 polynomial.
const crcPolynomial = 0xEDB88320

// CRC32 returns the IEEE CRC-32 checksum of data, computed bit by bit.
func CRC32(data []byte) uint32 {
	crc := ^uint32(0)
	for _, b := range data {
		crc ^= uint32(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ crcPolynomial
			} else {
				crc >>= 1
			}
		}
	}
	return ^crc
}
