// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire implements the length-framed binary request/response
// protocol spoken over a HIL device's USB-serial link, and the
// incremental parser that splits an inbound byte stream into typed
// responses and asynchronous CAN frames.
package wire // import "github.com/go-lpc/hil/wire"

import (
	"bytes"
	"encoding/binary"

	"github.com/go-lpc/hil/errs"
)

// Opcode identifies a wire command or response.
type Opcode uint8

const (
	ReadID   Opcode = 0
	WriteGPIO Opcode = 1
	HiZGPIO  Opcode = 2
	ReadGPIO Opcode = 3
	WriteDAC Opcode = 4
	HiZDAC   Opcode = 5
	ReadADC  Opcode = 6
	WritePOT Opcode = 7
	SendCAN  Opcode = 8
	RecvCAN  Opcode = 9
	ErrorOp  Opcode = 10
)

func (o Opcode) String() string {
	switch o {
	case ReadID:
		return "READ_ID"
	case WriteGPIO:
		return "WRITE_GPIO"
	case HiZGPIO:
		return "HIZ_GPIO"
	case ReadGPIO:
		return "READ_GPIO"
	case WriteDAC:
		return "WRITE_DAC"
	case HiZDAC:
		return "HIZ_DAC"
	case ReadADC:
		return "READ_ADC"
	case WritePOT:
		return "WRITE_POT"
	case SendCAN:
		return "SEND_CAN"
	case RecvCAN:
		return "RECV_CAN"
	case ErrorOp:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SyncPreamble is emitted by a device ahead of its very first READ_ID
// response, to let discovery resynchronize after any boot-time USB garbage.
var SyncPreamble = [4]byte{0xDE, 0xAD, 0xBE, 0xEF}

// isResponseOpcode reports whether op may legally lead an inbound frame.
func isResponseOpcode(op Opcode) bool {
	switch op {
	case ReadID, ReadGPIO, ReadADC, RecvCAN, ErrorOp:
		return true
	default:
		return false
	}
}

// EncodeReadID builds the READ_ID command frame.
func EncodeReadID() []byte { return []byte{byte(ReadID)} }

// EncodeWriteGPIO builds the WRITE_GPIO command frame.
func EncodeWriteGPIO(pin uint8, v bool) []byte {
	b := byte(0)
	if v {
		b = 1
	}
	return []byte{byte(WriteGPIO), pin, b}
}

// EncodeHiZGPIO builds the HIZ_GPIO command frame.
func EncodeHiZGPIO(pin uint8) []byte { return []byte{byte(HiZGPIO), pin} }

// EncodeReadGPIO builds the READ_GPIO command frame.
func EncodeReadGPIO(pin uint8) []byte { return []byte{byte(ReadGPIO), pin} }

// EncodeWriteDAC builds the WRITE_DAC command frame. raw must fit in one byte.
func EncodeWriteDAC(pin uint8, raw uint8) []byte { return []byte{byte(WriteDAC), pin, raw} }

// EncodeHiZDAC builds the HIZ_DAC command frame.
func EncodeHiZDAC(pin uint8) []byte { return []byte{byte(HiZDAC), pin} }

// EncodeReadADC builds the READ_ADC command frame.
func EncodeReadADC(pin uint8) []byte { return []byte{byte(ReadADC), pin} }

// EncodeWritePOT builds the WRITE_POT command frame.
func EncodeWritePOT(pin uint8, raw uint8) []byte { return []byte{byte(WritePOT), pin, raw} }

// EncodeSendCAN builds the SEND_CAN command frame. id is masked to 29 bits;
// data is padded/truncated to exactly 8 bytes on the wire, with len carrying
// the true payload length.
func EncodeSendCAN(bus uint8, id uint32, data []byte) []byte {
	id &= 0x1fffffff
	n := len(data)
	if n > 8 {
		n = 8
	}
	p := make([]byte, 0, 15)
	p = append(p, byte(SendCAN), bus)
	var idb [4]byte
	binary.BigEndian.PutUint32(idb[:], id)
	p = append(p, idb[:]...)
	p = append(p, uint8(n))
	buf := make([]byte, 8)
	copy(buf, data[:n])
	p = append(p, buf...)
	return p
}

// Response is one fully-parsed inbound frame: either a synchronous command
// response (keyed by opcode) or an asynchronous CAN frame (keyed by bus).
type Response struct {
	Opcode Opcode
	Bus    uint8   // valid only when Opcode == RecvCAN
	Body   []byte  // opcode-specific payload, excluding the leading opcode byte (and, for RecvCAN, the bus byte)
}

// Parser incrementally splits a growing byte stream into Responses. It is
// non-blocking: Feed consumes as large a prefix as is currently decodable
// and keeps what remains buffered for the next call.
//
// Feed fails on an unexpected leading byte (desynchronization), on an
// out-of-range RECV_CAN length, and on a device-reported ERROR frame. An
// ERROR frame is consumed before Feed fails, so a later Feed resumes after
// it; after the other failures the offending bytes stay buffered and every
// later Feed fails the same way.
type Parser struct {
	buf []byte
}

// NewParser returns a Parser ready to consume a fresh device link. preload,
// if non-nil, is prepended to the first Feed call — used by discovery to
// hand off bytes it already scanned past the sync preamble.
func NewParser(preload []byte) *Parser {
	p := &Parser{}
	if len(preload) > 0 {
		p.buf = append(p.buf, preload...)
	}
	return p
}

// Feed appends data to the parser's internal buffer and decodes as many
// complete frames as possible, invoking emit for each.
func (p *Parser) Feed(data []byte, emit func(Response)) error {
	p.buf = append(p.buf, data...)
	for {
		ok, err := p.step(emit)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// step attempts to decode exactly one frame from the front of the buffer.
// It returns ok=true if a frame (or filler) was consumed, so the caller
// should try again; ok=false means no further progress is possible with the
// bytes currently buffered.
func (p *Parser) step(emit func(Response)) (ok bool, err error) {
	if len(p.buf) == 0 {
		return false, nil
	}

	// A sync preamble (e.g. after a device reset) is tolerated as
	// zero-op filler ahead of a recognized opcode. A partial preamble at the
	// end of the buffer waits for more bytes.
	if n := len(p.buf); n < len(SyncPreamble) && bytes.Equal(p.buf, SyncPreamble[:n]) {
		return false, nil
	}
	if len(p.buf) >= len(SyncPreamble) && bytes.Equal(p.buf[:len(SyncPreamble)], SyncPreamble[:]) {
		p.buf = p.buf[len(SyncPreamble):]
		return true, nil
	}

	op := Opcode(p.buf[0])
	if !isResponseOpcode(op) {
		return false, errs.Serialf("wire: unexpected leading byte 0x%02x, link desynchronized", p.buf[0])
	}

	switch op {
	case ReadID:
		if len(p.buf) < 2 {
			return false, nil
		}
		emit(Response{Opcode: ReadID, Body: append([]byte(nil), p.buf[1:2]...)})
		p.buf = p.buf[2:]
		return true, nil

	case ReadGPIO:
		if len(p.buf) < 2 {
			return false, nil
		}
		emit(Response{Opcode: ReadGPIO, Body: append([]byte(nil), p.buf[1:2]...)})
		p.buf = p.buf[2:]
		return true, nil

	case ReadADC:
		if len(p.buf) < 3 {
			return false, nil
		}
		emit(Response{Opcode: ReadADC, Body: append([]byte(nil), p.buf[1:3]...)})
		p.buf = p.buf[3:]
		return true, nil

	case ErrorOp:
		if len(p.buf) < 2 {
			return false, nil
		}
		offending := p.buf[1]
		p.buf = p.buf[2:]
		return false, errs.Serialf("wire: device reported error for opcode 0x%02x", offending)

	case RecvCAN:
		if len(p.buf) < 7 {
			return false, nil
		}
		length := int(p.buf[6])
		if length > 8 {
			return false, errs.Serialf("wire: RECV_CAN length %d out of range", length)
		}
		need := 7 + length
		if len(p.buf) < need {
			return false, nil
		}
		bus := p.buf[1]
		body := append([]byte(nil), p.buf[2:need]...) // id(4) + len(1) + data(length)
		emit(Response{Opcode: RecvCAN, Bus: bus, Body: body})
		p.buf = p.buf[need:]
		return true, nil
	}

	return false, errs.Serialf("wire: unreachable opcode 0x%02x", byte(op))
}

// DecodeGPIO reads the boolean carried by a READ_GPIO response body.
func DecodeGPIO(body []byte) (bool, error) {
	if len(body) != 1 {
		return false, errs.Enginef("wire: READ_GPIO response has %d bytes, want 1", len(body))
	}
	return body[0] != 0, nil
}

// DecodeADC reads the raw 16-bit value carried by a READ_ADC response body.
func DecodeADC(body []byte) (uint16, error) {
	if len(body) != 2 {
		return 0, errs.Enginef("wire: READ_ADC response has %d bytes, want 2", len(body))
	}
	return binary.BigEndian.Uint16(body), nil
}

// DecodeID reads the device id carried by a READ_ID response body.
func DecodeID(body []byte) (uint8, error) {
	if len(body) != 1 {
		return 0, errs.Enginef("wire: READ_ID response has %d bytes, want 1", len(body))
	}
	return body[0], nil
}

// CANFrame is a decoded RECV_CAN payload.
type CANFrame struct {
	ID   uint32
	Data []byte
}

// DecodeCAN reads a RECV_CAN response body (id[4] + len[1] + data[len]).
func DecodeCAN(body []byte) (CANFrame, error) {
	if len(body) < 5 {
		return CANFrame{}, errs.Enginef("wire: RECV_CAN response has %d bytes, want >= 5", len(body))
	}
	id := binary.BigEndian.Uint32(body[0:4]) & 0x1fffffff
	n := int(body[4])
	if len(body) != 5+n {
		return CANFrame{}, errs.Enginef("wire: RECV_CAN response length mismatch: have %d, want %d", len(body), 5+n)
	}
	data := append([]byte(nil), body[5:5+n]...)
	return CANFrame{ID: id, Data: data}, nil
}
