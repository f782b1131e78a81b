package cache

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const envelopeHeader = 8

var errShortEnvelope = errors.New("cache envelope too short")

// encodeEnvelope 以 8 字节大端过期时间（UnixNano）开头，后接 msgpack 编码的值。
func encodeEnvelope[V any](value V, expires time.Time) ([]byte, error) {
	body, err := msgpack.Marshal(value)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, envelopeHeader+len(body))
	binary.BigEndian.PutUint64(buf[:envelopeHeader], uint64(expires.UnixNano()))
	copy(buf[envelopeHeader:], body)
	return buf, nil
}

// decodeEnvelope 返回值与过期时间；调用方负责判断是否过期。
func decodeEnvelope[V any](raw []byte) (V, time.Time, error) {
	var value V
	if len(raw) < envelopeHeader {
		return value, time.Time{}, errShortEnvelope
	}
	expires := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:envelopeHeader])))
	if err := msgpack.Unmarshal(raw[envelopeHeader:], &value); err != nil {
		return value, expires, err
	}
	return value, expires, nil
}
