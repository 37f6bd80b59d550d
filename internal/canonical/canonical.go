// Package canonical implements the whitespace-free, key-sorted JSON
// encoding used solely for transcript hashing. Every implementation
// that replays a transcript (this server, an auditor, a dispute
// resolver) must reproduce these bytes exactly, so the algorithm is
// kept deliberately simple: decode to generic JSON values, re-encode
// with map keys sorted at every level, arrays left in order, and any
// nil/absent field dropped.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Encode produces the canonical byte encoding of v. v may be a
// json.RawMessage, a []byte of JSON, or any value accepted by
// encoding/json.Marshal.
func Encode(v interface{}) ([]byte, error) {
	raw, err := toRawJSON(v)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonical: decode: %w", err)
	}

	var buf bytes.Buffer
	if err := encodeValue(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toRawJSON(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case json.RawMessage:
		return []byte(t), nil
	case []byte:
		return t, nil
	default:
		return json.Marshal(v)
	}
}

func encodeValue(buf *bytes.Buffer, v interface{}) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		buf.WriteString(t.String())
		return nil
	case string:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		wrote := false
		for _, k := range keys {
			val := t[k]
			if val == nil {
				// "undefined/absent" fields are omitted; we treat an
				// explicit JSON null the same way since a game module
				// never needs to distinguish "null" from "missing" in
				// a hashed payload.
				continue
			}
			if wrote {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeValue(buf, val); err != nil {
				return err
			}
			wrote = true
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("canonical: unsupported type %T", v)
	}
}

// HashState returns keccak256(utf8(Encode(x))).
func HashState(x interface{}) (common.Hash, error) {
	b, err := Encode(x)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(b), nil
}

// ChainHash returns keccak256(utf8(prevHashHex || Encode(entry))).
func ChainHash(prevHash common.Hash, entry interface{}) (common.Hash, error) {
	b, err := Encode(entry)
	if err != nil {
		return common.Hash{}, err
	}
	buf := make([]byte, 0, 64+len(b))
	buf = append(buf, []byte(prevHash.Hex())...)
	buf = append(buf, b...)
	return crypto.Keccak256Hash(buf), nil
}
