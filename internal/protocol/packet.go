package protocol

import (
	"encoding/binary"
	"errors"
)

// 固定包头 12 字节，所有整数均为网络字节序（大端）。
// 传输层（WebSocket 二进制帧）保证整包投递，这里不做 TCP 流式拼包。
const HeaderLen = 12

// Version 当前协议版本。
const Version uint16 = 0x0001

// Header 为客户端与网关之间的二进制包头。
// Length = 包头 + 包体总字节数；SeqID 原样回显给响应，用于请求配对。
type Header struct {
	Length uint32
	Ver    uint16
	CmdID  uint16
	SeqID  uint32
}

// ErrMalformedFrame 表示包头不完整或声明长度与实际字节数不符。
var ErrMalformedFrame = errors.New("protocol: malformed frame")

// Encode 组装完整数据包：写入包头并追加 payload。
func Encode(cmdID uint16, seqID uint32, payload []byte) []byte {
	buf := make([]byte, HeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], uint32(HeaderLen+len(payload)))
	binary.BigEndian.PutUint16(buf[4:6], Version)
	binary.BigEndian.PutUint16(buf[6:8], cmdID)
	binary.BigEndian.PutUint32(buf[8:12], seqID)
	copy(buf[HeaderLen:], payload)
	return buf
}

// Decode 解析一个完整数据包，返回包头与包体。
// 不足 12 字节、或 Length 与实际长度不一致时返回 ErrMalformedFrame。
func Decode(buf []byte) (Header, []byte, error) {
	if len(buf) < HeaderLen {
		return Header{}, nil, ErrMalformedFrame
	}
	h := Header{
		Length: binary.BigEndian.Uint32(buf[0:4]),
		Ver:    binary.BigEndian.Uint16(buf[4:6]),
		CmdID:  binary.BigEndian.Uint16(buf[6:8]),
		SeqID:  binary.BigEndian.Uint32(buf[8:12]),
	}
	if int(h.Length) != len(buf) {
		return Header{}, nil, ErrMalformedFrame
	}
	return h, buf[HeaderLen:], nil
}
