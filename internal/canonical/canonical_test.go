package canonical

import "testing"

func TestEncodeSortsKeysAtEveryLevel(t *testing.T) {
	a, err := Encode(map[string]interface{}{"b": 1, "a": map[string]interface{}{"z": 1, "y": 2}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"a":{"y":2,"z":1},"b":1}`
	if string(a) != want {
		t.Errorf("got %s, want %s", a, want)
	}
}

func TestEncodeOmitsNullFields(t *testing.T) {
	b, err := Encode(map[string]interface{}{"present": 1, "absent": nil})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"present":1}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestEncodeIsWhitespaceFree(t *testing.T) {
	b, err := Encode(map[string]interface{}{"arr": []interface{}{1, 2, 3}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, c := range b {
		if c == ' ' || c == '\n' || c == '\t' {
			t.Fatalf("encoding contains whitespace: %s", b)
		}
	}
}

func TestEncodeIsDeterministicAcrossCalls(t *testing.T) {
	v := map[string]interface{}{"x": 1, "y": []interface{}{"a", "b"}, "z": map[string]interface{}{"k": true}}
	a, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("encoding not deterministic: %s vs %s", a, b)
	}
}

func TestHashStateIsStableForEquivalentMaps(t *testing.T) {
	h1, err := HashState(map[string]interface{}{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("HashState: %v", err)
	}
	h2, err := HashState(map[string]interface{}{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("HashState: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hash should not depend on map key order: %s vs %s", h1.Hex(), h2.Hex())
	}
}

func TestChainHashDependsOnPrevHash(t *testing.T) {
	entry := map[string]interface{}{"move": 1}
	h1, err := ChainHash([32]byte{}, entry)
	if err != nil {
		t.Fatalf("ChainHash: %v", err)
	}
	h2, err := ChainHash([32]byte{1}, entry)
	if err != nil {
		t.Fatalf("ChainHash: %v", err)
	}
	if h1 == h2 {
		t.Error("chain hash should differ when prevHash differs")
	}
}
