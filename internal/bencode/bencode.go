// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bencode serializes nested values into the torrent wire format.
// Dictionary keys are always emitted in ascending raw byte order; two
// independent encoders must agree byte for byte for infohashes to line up.
package bencode

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
)

// EncodingError reports a value the format cannot represent, such as a float
// or a dictionary key that is not a string.
type EncodingError struct {
	Kind string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("bencode: unsupported value kind %s", e.Kind)
}

func (e *EncodingError) Is(target error) bool {
	_, ok := target.(*EncodingError)
	return ok
}

// Encode returns the bencoded representation of value.
func Encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case int:
		encodeInt(buf, int64(v))
	case int64:
		encodeInt(buf, v)
	case uint32:
		encodeInt(buf, int64(v))
	case uint64:
		buf.WriteByte('i')
		buf.WriteString(strconv.FormatUint(v, 10))
		buf.WriteByte('e')
	case string:
		encodeBytes(buf, []byte(v))
	case []byte:
		encodeBytes(buf, v)
	case []any:
		buf.WriteByte('l')
		for _, item := range v {
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	case map[string]any:
		return encodeDict(buf, v)
	case map[any]any:
		converted := make(map[string]any, len(v))
		for key, val := range v {
			s, ok := key.(string)
			if !ok {
				return &EncodingError{Kind: fmt.Sprintf("dictionary key %T", key)}
			}
			converted[s] = val
		}
		return encodeDict(buf, converted)
	default:
		return &EncodingError{Kind: fmt.Sprintf("%T", value)}
	}
	return nil
}

func encodeInt(buf *bytes.Buffer, v int64) {
	buf.WriteByte('i')
	buf.WriteString(strconv.FormatInt(v, 10))
	buf.WriteByte('e')
}

func encodeBytes(buf *bytes.Buffer, v []byte) {
	buf.WriteString(strconv.Itoa(len(v)))
	buf.WriteByte(':')
	buf.Write(v)
}

func encodeDict(buf *bytes.Buffer, dict map[string]any) error {
	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	// sort.Strings compares byte-wise, which matches the format's
	// required raw lexicographic key order.
	sort.Strings(keys)

	buf.WriteByte('d')
	for _, k := range keys {
		encodeBytes(buf, []byte(k))
		if err := encodeValue(buf, dict[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('e')
	return nil
}
