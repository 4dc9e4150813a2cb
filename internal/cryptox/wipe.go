package cryptox

// WipeBytes overwrites b with zeros. Used on decrypted buffers and key
// material once they are no longer needed. A nil slice is a no-op.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
