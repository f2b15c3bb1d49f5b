package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte(`{"uid":42,"token":"123456"}`)
	buf := Encode(CmdLoginReq, 7, payload)

	h, body, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(HeaderLen+len(payload)), h.Length)
	assert.Equal(t, Version, h.Ver)
	assert.Equal(t, CmdLoginReq, h.CmdID)
	assert.Equal(t, uint32(7), h.SeqID)
	assert.Equal(t, payload, body)
}

func TestEncodeEmptyPayload(t *testing.T) {
	buf := Encode(CmdSyncReq, 0, nil)
	require.Len(t, buf, HeaderLen)

	h, body, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(HeaderLen), h.Length)
	assert.Empty(t, body)
}

func TestHeaderIsBigEndian(t *testing.T) {
	buf := Encode(0x1003, 0x01020304, []byte{0xAA})
	// length = 13 = 0x0000000D
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x0D}, buf[0:4])
	assert.Equal(t, []byte{0x00, 0x01}, buf[4:6]) // version
	assert.Equal(t, []byte{0x10, 0x03}, buf[6:8])
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, buf[8:12])
}

func TestDecodeShortFrame(t *testing.T) {
	_, _, err := Decode([]byte{0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecodeLengthMismatch(t *testing.T) {
	buf := Encode(CmdSendMsgReq, 1, []byte("hello"))

	// 截断包体：声明长度大于实际字节数
	_, _, err := Decode(buf[:len(buf)-2])
	assert.ErrorIs(t, err, ErrMalformedFrame)

	// 声明长度小于实际字节数同样拒绝
	_, _, err = Decode(append(buf, 0x00))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}
