package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestRoundTrip(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	require.True(t, svc.Configured())

	sealed, err := svc.EncryptString("GB29 NWBK 6016 1331 9268 19")
	require.NoError(t, err)
	require.NotContains(t, string(sealed), "NWBK")

	plain, err := svc.DecryptString(sealed)
	require.NoError(t, err)
	require.Equal(t, "GB29 NWBK 6016 1331 9268 19", plain)
}

func TestNoncesDiffer(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	a, err := svc.EncryptString("same")
	require.NoError(t, err)
	b, err := svc.EncryptString("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestPassThroughWithoutKey(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	require.False(t, svc.Configured())

	sealed, err := svc.EncryptString("plain")
	require.NoError(t, err)
	require.Equal(t, []byte("plain"), sealed)
}

func TestRejectsWrongKeyLength(t *testing.T) {
	_, err := New(strings.Repeat("a", 10))
	require.Error(t, err)
}

func TestDecryptTooShort(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	_, err = svc.Decrypt([]byte{sealedV1, 2, 3})
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestReadsValuesStoredWithoutKey(t *testing.T) {
	plainSvc, err := New("")
	require.NoError(t, err)
	stored, err := plainSvc.EncryptString("AB123456C")
	require.NoError(t, err)

	svc, err := New(testKey)
	require.NoError(t, err)
	plain, err := svc.DecryptString(stored)
	require.NoError(t, err)
	require.Equal(t, "AB123456C", plain)

	sealed, err := svc.EncryptString("AB123456C")
	require.NoError(t, err)
	require.Equal(t, sealedV1, sealed[0])
	_, err = plainSvc.DecryptString(sealed)
	require.ErrorIs(t, err, ErrKeyRequired)
}

func TestDecryptRejectsTampering(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	sealed, err := svc.EncryptString("salary")
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff
	_, err = svc.DecryptString(sealed)
	require.Error(t, err)

	other, err := New("ZmVkY2JhOTg3NjU0MzIxMGZlZGNiYTk4NzY1NDMyMTA=")
	require.NoError(t, err)
	sealed, err = svc.EncryptString("salary")
	require.NoError(t, err)
	_, err = other.DecryptString(sealed)
	require.Error(t, err)
}
