package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taxintake/intakeengine/internal/common"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(bytes.Repeat([]byte{0x42}, KeySize))
	require.NoError(t, err)
	return c
}

func TestNewCodec_RejectsWrongKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := NewCodec(make([]byte, n))
		require.ErrorIs(t, err, common.ErrConfiguration, "key length %d", n)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	for _, p := range []string{"123-45-6789", "123456", "021000021", "x", "naïve ünïcode ✓"} {
		blob, err := c.Encrypt(p)
		require.NoError(t, err)
		require.Len(t, blob, NonceSize+len(p)+TagSize)

		got, err := c.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestCodec_EncryptIsRandomized(t *testing.T) {
	c := newTestCodec(t)

	a, err := c.Encrypt("123-45-6789")
	require.NoError(t, err)
	b, err := c.Encrypt("123-45-6789")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a[:NonceSize], b[:NonceSize])
}

func TestCodec_EncryptRejectsEmpty(t *testing.T) {
	c := newTestCodec(t)
	_, err := c.Encrypt("")
	require.ErrorIs(t, err, ErrEmptyPlaintext)
}

func TestCodec_DecryptShortBlob(t *testing.T) {
	c := newTestCodec(t)

	for n := 0; n < NonceSize+TagSize+1; n++ {
		_, err := c.Decrypt(make([]byte, n))
		require.ErrorIs(t, err, ErrIntegrity, "length %d", n)
	}
}

func TestCodec_DecryptDetectsEverySingleByteFlip(t *testing.T) {
	c := newTestCodec(t)

	blob, err := c.Encrypt("987654321")
	require.NoError(t, err)

	for i := range blob {
		tampered := bytes.Clone(blob)
		tampered[i] ^= 0x01

		got, err := c.Decrypt(tampered)
		require.ErrorIs(t, err, ErrIntegrity, "flipped byte %d", i)
		assert.Empty(t, got)
	}
}

func TestCodec_DecryptWithOtherKeyFails(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec(bytes.Repeat([]byte{0x17}, KeySize))
	require.NoError(t, err)

	blob, err := c.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(blob)
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestCodec_SafeEncrypt(t *testing.T) {
	c := newTestCodec(t)

	for _, blank := range []string{"", " ", "\t\n "} {
		blob, err := c.SafeEncrypt(blank)
		require.NoError(t, err)
		assert.Nil(t, blob)
	}

	blob, err := c.SafeEncrypt("123456")
	require.NoError(t, err)
	got, err := c.Decrypt(blob)
	require.NoError(t, err)
	assert.Equal(t, "123456", got)
}

func TestCodec_DecryptOptional(t *testing.T) {
	c := newTestCodec(t)

	v, present, err := c.DecryptOptional(nil)
	require.NoError(t, err)
	assert.False(t, present)
	assert.Empty(t, v)

	_, present, err = c.DecryptOptional([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrIntegrity)
	assert.True(t, present)

	blob, err := c.Encrypt("666")
	require.NoError(t, err)
	v, present, err = c.DecryptOptional(blob)
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "666", v)
}
