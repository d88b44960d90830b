package sonoff

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Key is the 16-byte AES key used to decrypt a device's TXT metadata and to
// encrypt control requests sent to it.
type Key [16]byte

// ParseKey decodes a hex-encoded 16-byte key, as configured per device in
// SonoffConfig.Keys.
func ParseKey(hexKey string) (Key, error) {
	var k Key
	raw, err := decodeHex(hexKey)
	if err != nil {
		return k, fmt.Errorf("sonoff: parsing device key: %w", err)
	}
	if len(raw) != len(k) {
		return k, fmt.Errorf("sonoff: device key must be %d bytes, got %d", len(k), len(raw))
	}
	copy(k[:], raw)
	return k, nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, err := hexDigit(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}

// ParseMeta reassembles and decodes the JSON device metadata carried across
// the "data1".."data4" TXT fields, decrypting it with key when the device
// announces encrypt=true. info holds the raw TXT key/value fields as parsed
// off the wire (parser.go).
func ParseMeta(info map[string]string, key *Key) (map[string]any, error) {
	var data string
	for _, field := range []string{"data1", "data2", "data3", "data4"} {
		data += info[field]
	}

	encrypted := info["encrypt"] == "true"

	var plaintext []byte
	if encrypted {
		ivB64, ok := info["iv"]
		if !ok {
			return nil, &ErrMissingInfoField{Field: "iv"}
		}
		iv, err := base64.StdEncoding.DecodeString(ivB64)
		if err != nil {
			return nil, fmt.Errorf("sonoff: decoding iv: %w", err)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("sonoff: decoding data: %w", err)
		}
		if key == nil {
			return nil, ErrMissingKey
		}
		plaintext, err = decryptCBC(ciphertext, key[:], iv)
		if err != nil {
			return nil, fmt.Errorf("sonoff: decrypting metadata: %w", err)
		}
	} else {
		plaintext = []byte(data)
	}

	var meta map[string]any
	if err := json.Unmarshal(plaintext, &meta); err != nil {
		return nil, fmt.Errorf("sonoff: parsing decoded metadata: %w", err)
	}
	return meta, nil
}

// decryptCBC decrypts ciphertext with AES-128-CBC and strips PKCS7 padding.
func decryptCBC(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of the block size")
	}
	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, ciphertext)
	return unpadPKCS7(plaintext)
}

// encryptCBC pads plaintext with PKCS7 and encrypts it with AES-128-CBC,
// used to build the control-path "data" field (client.go).
func encryptCBC(plaintext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := bytes.Repeat([]byte{byte(padLen)}, padLen)
	return append(append([]byte{}, data...), padding...)
}

func unpadPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) {
		return nil, fmt.Errorf("invalid PKCS7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid PKCS7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}
