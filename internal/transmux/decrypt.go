package transmux

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Decrypter is the two-mode AES-128 adapter. Progressive software
// decryption buffers a trailing partial block across calls so that
// SoftwareDecrypt's "maybe result" semantics never conflate "zero bytes
// this call" with failure: a nil return with ok=false means "nothing
// decryptable yet", not an error.
//
// crypto/aes + crypto/cipher is the standard block-cipher idiom for
// this kind of media-plane component; no third-party AES library is
// warranted here.
type Decrypter struct {
	softwareResidue []byte // bytes held back because they don't form a full block yet
	softwareIV      []byte // chained IV for the next CBC block
	softwareKey     []byte
}

// NewDecrypter returns a Decrypter with no pending state.
func NewDecrypter() *Decrypter {
	return &Decrypter{}
}

// Reset clears internal cipher state. Invoked from Configure.
func (d *Decrypter) Reset() {
	d.softwareResidue = nil
	d.softwareIV = nil
	d.softwareKey = nil
}

// SoftwareDecrypt implements the progressive software AES-128 CBC path.
// It returns (plaintext, true) once at least one full block is
// decryptable, or (nil, false) when the accumulated bytes don't yet
// form a full block — the caller must retain the input bytes nowhere
// else, since the partial tail is buffered here.
func (d *Decrypter) SoftwareDecrypt(data, key, iv []byte) ([]byte, bool, error) {
	if len(data) == 0 && len(d.softwareResidue) == 0 {
		return nil, false, nil
	}

	if d.softwareKey == nil {
		d.softwareKey = key
		d.softwareIV = iv
	}

	buf := append(d.softwareResidue, data...)
	d.softwareResidue = nil

	blockSize := aes.BlockSize
	usable := (len(buf) / blockSize) * blockSize
	if usable == 0 {
		d.softwareResidue = buf
		return nil, false, nil
	}

	block, err := aes.NewCipher(d.softwareKey)
	if err != nil {
		return nil, false, fmt.Errorf("transmux: aes key setup: %w", err)
	}

	mode := cipher.NewCBCDecrypter(block, d.softwareIV)
	out := make([]byte, usable)
	mode.CryptBlocks(out, buf[:usable])

	// Chain the IV forward: the last ciphertext block of this call
	// becomes the IV for the next call's first block.
	d.softwareIV = append([]byte(nil), buf[usable-blockSize:usable]...)

	if usable < len(buf) {
		d.softwareResidue = append(d.softwareResidue, buf[usable:]...)
	}

	return out, true, nil
}

// Flush drains any residue left at end of segment. Per PKCS#7-less
// AES-128 CBC as used by HLS-style segment encryption, a true trailing
// partial block (not a full final block awaiting unpadding) indicates
// truncated ciphertext; it is returned as-is since this adapter does
// not interpret padding — that is the demuxer's concern once it
// receives plaintext bytes.
func (d *Decrypter) Flush() ([]byte, bool) {
	if len(d.softwareResidue) == 0 {
		return nil, false
	}
	out := d.softwareResidue
	d.softwareResidue = nil
	return out, true
}

// AsyncDecrypt implements the asynchronous single-shot AES-128 path: the
// full ciphertext is decrypted once on a background goroutine and
// delivered over the returned channels, through the same future-shaped
// handle the orchestrator already uses for SAMPLE-AES, so callers treat
// both suspension points uniformly.
func (d *Decrypter) AsyncDecrypt(data, key, iv []byte) (<-chan []byte, <-chan error) {
	outCh := make(chan []byte, 1)
	errCh := make(chan error, 1)

	go func() {
		block, err := aes.NewCipher(key)
		if err != nil {
			errCh <- fmt.Errorf("transmux: aes key setup: %w", err)
			return
		}
		if len(data)%aes.BlockSize != 0 {
			errCh <- fmt.Errorf("transmux: ciphertext length %d is not a multiple of the block size", len(data))
			return
		}
		mode := cipher.NewCBCDecrypter(block, iv)
		out := make([]byte, len(data))
		mode.CryptBlocks(out, data)
		outCh <- out
	}()

	return outCh, errCh
}
