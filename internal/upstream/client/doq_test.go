package client

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroedIDClearsFirstTwoBytes(t *testing.T) {
	msg := []byte{0xAB, 0xCD, 0x01, 0x00}
	out, err := zeroedID(msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x00}, out)
	assert.Equal(t, byte(0xAB), msg[0], "original message must not be mutated")
}

func TestZeroedIDRejectsShortMessage(t *testing.T) {
	_, err := zeroedID([]byte{0x01})
	assert.Error(t, err)
}

func TestReadDoQResponseParsesLengthPrefixedPayload(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	framed := []byte{0x00, 0x04}
	framed = append(framed, payload...)

	got, err := readDoQResponse(bytes.NewReader(framed))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadDoQResponseFallsBackToWholeStreamWithoutPrefix(t *testing.T) {
	// The first two bytes don't account for the remaining length, so
	// this isn't a valid length prefix: the whole stream is the message.
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02}

	got, err := readDoQResponse(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadDoQResponseErrorsOnEmptyStream(t *testing.T) {
	_, err := readDoQResponse(bytes.NewReader(nil))
	assert.Error(t, err)
}
