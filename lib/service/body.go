// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// maxRequestBody caps decoded request bodies. Build logs run to a few
// hundred kilobytes; 32 MiB leaves room for pathological ones without
// letting a compressed bomb exhaust memory.
const maxRequestBody = 32 << 20

// ErrUnsupportedEncoding is returned by [ReadBody] for
// Content-Encoding values other than identity, gzip, or zstd.
// Handlers map it to HTTP 415.
var ErrUnsupportedEncoding = errors.New("service: unsupported content encoding")

// ErrBodyTooLarge is returned by [ReadBody] when the decoded body
// exceeds the request size limit. Handlers map it to HTTP 413.
var ErrBodyTooLarge = errors.New("service: request body exceeds size limit")

// zstdDecoder is reused across requests. DecodeAll on a shared
// decoder is safe for concurrent use.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(maxRequestBody),
	)
	if err != nil {
		panic("service: zstd decoder initialization failed: " + err.Error())
	}
}

// ReadBody reads a request body, transparently decoding gzip and
// zstd content encodings. Clients submitting large build logs
// compress them; the analysis pipeline always sees plain text.
func ReadBody(request *http.Request) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(request.Header.Get("Content-Encoding")))
	switch encoding {
	case "", "identity":
		return readLimited(request.Body)

	case "gzip":
		reader, err := gzip.NewReader(request.Body)
		if err != nil {
			return nil, fmt.Errorf("service: gzip body: %w", err)
		}
		defer reader.Close()
		data, err := readLimited(reader)
		if err != nil {
			return nil, fmt.Errorf("service: gzip body: %w", err)
		}
		return data, nil

	case "zstd":
		compressed, err := readLimited(request.Body)
		if err != nil {
			return nil, err
		}
		data, err := zstdDecoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("service: zstd body: %w", err)
		}
		return data, nil

	default:
		return nil, ErrUnsupportedEncoding
	}
}

// readLimited reads everything from reader, failing with
// ErrBodyTooLarge instead of truncating when the limit is exceeded.
func readLimited(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxRequestBody+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxRequestBody {
		return nil, ErrBodyTooLarge
	}
	return data, nil
}
