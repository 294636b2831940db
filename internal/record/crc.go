package record

import "hash/crc32"

// CalculateCRC computes the CRC32 (IEEE) checksum over the record kind, key and value.
func CalculateCRC(kind Kind, key, value []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte{byte(kind)})
	h.Write(key)
	h.Write(value)
	return h.Sum32()
}

// ValidateCRC returns true if the provided checksum matches the computed CRC32 of the record
func ValidateCRC(kind Kind, key, value []byte, checksum uint32) bool {
	return CalculateCRC(kind, key, value) == checksum
}
