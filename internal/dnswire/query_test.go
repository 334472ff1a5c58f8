package dnswire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryRoundTrip(t *testing.T) {
	q := Query{ID: 0x1234, Name: "Example.COM", Type: TypeA, RecursionDesired: true}
	b, err := EncodeQuery(q)
	require.NoError(t, err)

	got, err := DecodeQuery(b)
	require.NoError(t, err)
	assert.Equal(t, q.ID, got.ID)
	assert.Equal(t, "example.com", got.Name)
	assert.Equal(t, q.Type, got.Type)
	assert.True(t, got.RecursionDesired)
}

func TestDecodeResponseDropsUnknownRecordTypes(t *testing.T) {
	a, _ := NewARecord("example.com", 300, net.IPv4(1, 2, 3, 4))
	unknown := Record{Name: "example.com", Type: 9999, Class: uint16(ClassIN), TTL: 300, Data: []byte{0xAA}}
	p := Packet{
		Header:    Header{ID: 42, Flags: QRFlag},
		Questions: []Question{{Name: "example.com", Type: uint16(TypeA), Class: uint16(ClassIN)}},
		Answers:   []Record{a, unknown},
	}
	b, err := p.Marshal()
	require.NoError(t, err)

	resp, err := DecodeResponse(b)
	require.NoError(t, err)
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, uint16(TypeA), resp.Answers[0].Type)
}

func TestEncodeResponseRewritesID(t *testing.T) {
	q := Query{ID: 0xABCD, Name: "local.test", Type: TypeA, RecursionDesired: true}
	a, _ := NewARecord("local.test", 300, net.IPv4(127, 0, 0, 1))
	resp := Response{ID: 0x0001, ResponseCode: NoError, RecursionAvailable: true, Answers: []Record{a}}

	b, err := EncodeResponse(resp, q)
	require.NoError(t, err)

	decoded, err := DecodeResponse(b)
	require.NoError(t, err)
	assert.Equal(t, q.ID, decoded.ID)
	assert.Equal(t, NoError, decoded.ResponseCode)
	require.Len(t, decoded.Answers, 1)
	ip, ok := decoded.Answers[0].IPv4()
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", ip)
}

func TestPatchID(t *testing.T) {
	q := Query{ID: 1, Name: "x.test", Type: TypeA}
	b, err := EncodeQuery(q)
	require.NoError(t, err)
	out, err := PatchID(b, 0xBEEF)
	require.NoError(t, err)
	got, err := DecodeQuery(out)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), got.ID)
}
