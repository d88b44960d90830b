package roborock

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// salt is mixed into the per-message key derivation alongside the device's
// local_key and the message timestamp.
const salt = "TXdfu$jyZ#TZHsg4"

// encodeTimestamp reorders the 8 hex digits of ts through a fixed
// permutation before it is folded into the key derivation. The permutation
// is [5,6,3,7,1,2,0,4]: output[i] = input[permutation[i]].
func encodeTimestamp(ts uint32) []byte {
	digits := fmt.Sprintf("%08x", ts)
	perm := [8]int{5, 6, 3, 7, 1, 2, 0, 4}
	out := make([]byte, 8)
	for i, p := range perm {
		out[i] = digits[p]
	}
	return out
}

// l01Key derives the per-message AES-256 key from the message timestamp and
// the device's local_key.
func l01Key(ts uint32, localKey string) []byte {
	h := sha256.New()
	h.Write(encodeTimestamp(ts))
	h.Write([]byte(localKey))
	h.Write([]byte(salt))
	return h.Sum(nil)
}

// l01IV derives the 12-byte GCM nonce from the frame sequence, message
// nonce, and timestamp.
func l01IV(seq, nonce, ts uint32) []byte {
	h := sha256.New()
	h.Write(be32(seq))
	h.Write(be32(nonce))
	h.Write(be32(ts))
	return h.Sum(nil)[:12]
}

// l01AAD builds the additional authenticated data for the GCM cipher. The
// ack-nonce segment is included only once the hello handshake has completed
// (ackNonce != nil); appending it unconditionally would break the hello
// request/response themselves, which are exchanged before any ack nonce
// exists.
func l01AAD(seq, connectNonce uint32, ackNonce *uint32, nonce, ts uint32) []byte {
	aad := make([]byte, 0, 20)
	aad = append(aad, be32(seq)...)
	aad = append(aad, be32(connectNonce)...)
	if ackNonce != nil {
		aad = append(aad, be32(*ackNonce)...)
	}
	aad = append(aad, be32(nonce)...)
	aad = append(aad, be32(ts)...)
	return aad
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func gcmCipher(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("roborock: aes cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// encryptGCML01 encrypts plaintext under the L01 key/iv/aad derivation.
// ackNonce may be nil only when encrypting the hello request itself.
func encryptGCML01(localKey string, seq, connectNonce uint32, ackNonce *uint32, nonce, ts uint32, plaintext []byte) ([]byte, error) {
	key := l01Key(ts, localKey)
	iv := l01IV(seq, nonce, ts)
	aad := l01AAD(seq, connectNonce, ackNonce, nonce, ts)

	aead, err := gcmCipher(key)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, iv, plaintext, aad), nil
}

// decryptGCML01 decrypts ciphertext under the L01 key/iv/aad derivation.
// It requires ackNonce: decryption only ever happens after the hello
// handshake has produced one.
func decryptGCML01(localKey string, seq, connectNonce uint32, ackNonce *uint32, nonce, ts uint32, ciphertext []byte) ([]byte, error) {
	if ackNonce == nil {
		return nil, ErrMissingAckNonce
	}
	key := l01Key(ts, localKey)
	iv := l01IV(seq, nonce, ts)
	aad := l01AAD(seq, connectNonce, ackNonce, nonce, ts)

	aead, err := gcmCipher(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, iv, ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("roborock: gcm decrypt failed: %w", err)
	}
	return plaintext, nil
}
