package sonoff

import (
	"encoding/base64"
	"encoding/hex"
	"testing"
)

func TestCBC_EncryptDecryptRoundtrip(t *testing.T) {
	key, err := hex.DecodeString("6e8311168ee16d6aa1aa48c64145003c")
	if err != nil {
		t.Fatalf("decoding key: %v", err)
	}
	iv, err := hex.DecodeString("6f434fa9acd75da73e5fb999f641cda2")
	if err != nil {
		t.Fatalf("decoding iv: %v", err)
	}

	ciphertext, err := encryptCBC([]byte(`{"test":"message"}`), key, iv)
	if err != nil {
		t.Fatalf("encryptCBC() error = %v", err)
	}

	decoded, err := decryptCBC(ciphertext, key, iv)
	if err != nil {
		t.Fatalf("decryptCBC() error = %v", err)
	}
	if string(decoded) != `{"test":"message"}` {
		t.Errorf("decryptCBC() = %q, want %q", decoded, `{"test":"message"}`)
	}
}

func TestParseMeta_Plaintext(t *testing.T) {
	info := map[string]string{
		"data1": `{"switches":[{"switch":"on","outlet":0}]}`,
	}

	meta, err := ParseMeta(info, nil)
	if err != nil {
		t.Fatalf("ParseMeta() error = %v", err)
	}

	switches, ok := meta["switches"].([]any)
	if !ok || len(switches) != 1 {
		t.Fatalf("ParseMeta() switches = %v", meta["switches"])
	}
}

func TestParseMeta_Encrypted(t *testing.T) {
	var key Key
	copy(key[:], []byte("0123456789abcdef"))

	iv := []byte("abcdefghijklmnop")
	plaintext := []byte(`{"switches":[{"switch":"off","outlet":0}]}`)
	ciphertext, err := encryptCBC(plaintext, key[:], iv)
	if err != nil {
		t.Fatalf("encryptCBC() error = %v", err)
	}

	data := base64.StdEncoding.EncodeToString(ciphertext)
	info := map[string]string{
		"encrypt": "true",
		"iv":      base64.StdEncoding.EncodeToString(iv),
		"data1":   data[:len(data)/2],
		"data2":   data[len(data)/2:],
	}

	meta, err := ParseMeta(info, &key)
	if err != nil {
		t.Fatalf("ParseMeta() error = %v", err)
	}
	switches, ok := meta["switches"].([]any)
	if !ok || len(switches) != 1 {
		t.Fatalf("ParseMeta() switches = %v", meta["switches"])
	}
}

func TestParseMeta_EncryptedWithoutKey(t *testing.T) {
	info := map[string]string{
		"encrypt": "true",
		"iv":      base64.StdEncoding.EncodeToString([]byte("abcdefghijklmnop")),
		"data1":   base64.StdEncoding.EncodeToString([]byte("0123456789abcdef")),
	}

	if _, err := ParseMeta(info, nil); err != ErrMissingKey {
		t.Errorf("ParseMeta() error = %v, want ErrMissingKey", err)
	}
}

func TestParseKey_RoundTrips(t *testing.T) {
	key, err := ParseKey("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("ParseKey() error = %v", err)
	}
	if key[0] != 0x01 || key[15] != 0xef {
		t.Errorf("ParseKey() = %x", key)
	}
}

func TestParseKey_WrongLength(t *testing.T) {
	if _, err := ParseKey("abcd"); err == nil {
		t.Error("ParseKey() expected error for short key, got nil")
	}
}
