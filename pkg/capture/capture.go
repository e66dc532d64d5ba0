// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records reassembled protocol frames to a CBOR stream
// for offline diagnostics and replays them back.
package capture

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is one captured frame: its reassembly time and the complete
// wire image.
type Record struct {
	Time time.Time `cbor:"1,keyasint"`
	Raw  []byte    `cbor:"2,keyasint"`
}

// Writer appends frame records to a capture stream.
type Writer struct {
	enc *cbor.Encoder
}

// NewWriter creates a capture writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: cbor.NewEncoder(w)}
}

// Write appends one frame to the capture.
func (w *Writer) Write(t time.Time, raw []byte) error {
	if err := w.enc.Encode(Record{Time: t, Raw: raw}); err != nil {
		return fmt.Errorf("encode capture record: %w", err)
	}
	return nil
}

// Reader iterates the records of a capture stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a capture reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the capture.
func (r *Reader) Next() (*Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decode capture record: %w", err)
	}
	return &rec, nil
}
