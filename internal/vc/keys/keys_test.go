package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	msg := []byte("the quick brown fox")
	sig, err := Sign(kp.PrivateKey, msg)
	require.NoError(t, err)

	ok, err := Verify(kp.PublicKey, msg, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)
	other, err := Generate()
	require.NoError(t, err)

	msg := []byte("payload")
	sig, err := Sign(kp.PrivateKey, msg)
	require.NoError(t, err)

	ok, err := Verify(other.PublicKey, msg, sig)
	require.NoError(t, err, "wrong key is not malformed input")
	assert.False(t, ok)
}

func TestVerifyRejectsMutatedMessage(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	msg := []byte("payload")
	sig, err := Sign(kp.PrivateKey, msg)
	require.NoError(t, err)

	ok, err := Verify(kp.PublicKey, []byte("Payload"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMalformedLengths(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	_, err = Sign(kp.PrivateKey[:10], []byte("m"))
	assert.ErrorIs(t, err, ErrMalformedKey)

	_, err = Verify(kp.PublicKey[:5], []byte("m"), make([]byte, 64))
	assert.ErrorIs(t, err, ErrMalformedKey)

	_, err = Verify(kp.PublicKey, []byte("m"), make([]byte, 3))
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestSeedRoundTrip(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	restored, err := FromSeed(kp.Seed())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, restored.PublicKey)

	_, err = FromSeed([]byte("short"))
	assert.ErrorIs(t, err, ErrMalformedKey)
}

func TestEncodeDecode(t *testing.T) {
	t.Run("round trip without padding", func(t *testing.T) {
		for _, b := range [][]byte{{}, {0}, {0xff, 0xfe}, []byte("worldpass")} {
			got, err := Decode(Encode(b))
			require.NoError(t, err)
			assert.Equal(t, b, got)
		}
	})

	t.Run("tolerates trailing padding", func(t *testing.T) {
		got, err := Decode("AQID==")
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, got)
	})

	t.Run("rejects invalid alphabet", func(t *testing.T) {
		_, err := Decode("not/valid+b64u!")
		assert.ErrorIs(t, err, ErrBadEncoding)
	})
}
