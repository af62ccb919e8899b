package transmux

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"testing"
)

func encryptCBC(t *testing.T, key, iv, plaintext []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("aes.NewCipher: %v", err)
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

func TestSoftwareDecryptSingleFullBlock(t *testing.T) {
	key := randomBytes(t, 16)
	iv := randomBytes(t, 16)
	plaintext := randomBytes(t, 16)
	ct := encryptCBC(t, key, iv, plaintext)

	d := NewDecrypter()
	out, ok, err := d.SoftwareDecrypt(ct, key, iv)
	if err != nil {
		t.Fatalf("SoftwareDecrypt: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for a full block")
	}
	if !bytes.Equal(out, plaintext) {
		t.Fatalf("decrypted mismatch: got %x want %x", out, plaintext)
	}
}

func TestSoftwareDecryptBuffersPartialBlock(t *testing.T) {
	key := randomBytes(t, 16)
	iv := randomBytes(t, 16)
	plaintext := randomBytes(t, 32)
	ct := encryptCBC(t, key, iv, plaintext)

	d := NewDecrypter()

	// First call: less than one block - must buffer, not decrypt.
	out, ok, err := d.SoftwareDecrypt(ct[:10], key, iv)
	if err != nil {
		t.Fatalf("SoftwareDecrypt: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a partial block")
	}
	if out != nil {
		t.Fatalf("expected nil output for partial block, got %x", out)
	}

	// Second call: remaining bytes complete the first block and all of
	// the second.
	out, ok, err = d.SoftwareDecrypt(ct[10:], key, iv)
	if err != nil {
		t.Fatalf("SoftwareDecrypt: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true once enough bytes accumulated")
	}
	if !bytes.Equal(out, plaintext) {
		t.Fatalf("decrypted mismatch: got %x want %x", out, plaintext)
	}
}

func TestSoftwareDecryptFlushReturnsResidue(t *testing.T) {
	key := randomBytes(t, 16)
	iv := randomBytes(t, 16)

	d := NewDecrypter()
	partial := randomBytes(t, 5)
	_, ok, err := d.SoftwareDecrypt(partial, key, iv)
	if err != nil {
		t.Fatalf("SoftwareDecrypt: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false, residue should be buffered")
	}

	residue, hasResidue := d.Flush()
	if !hasResidue {
		t.Fatal("expected residue on flush")
	}
	if !bytes.Equal(residue, partial) {
		t.Fatalf("residue mismatch: got %x want %x", residue, partial)
	}

	if _, hasResidue := d.Flush(); hasResidue {
		t.Fatal("expected no residue after a flush already drained it")
	}
}

func TestDecrypterReset(t *testing.T) {
	key := randomBytes(t, 16)
	iv := randomBytes(t, 16)
	d := NewDecrypter()
	d.SoftwareDecrypt(randomBytes(t, 5), key, iv)
	d.Reset()
	if _, ok := d.Flush(); ok {
		t.Fatal("expected no residue after Reset")
	}
}

func TestAsyncDecrypt(t *testing.T) {
	key := randomBytes(t, 16)
	iv := randomBytes(t, 16)
	plaintext := randomBytes(t, 32)
	ct := encryptCBC(t, key, iv, plaintext)

	d := NewDecrypter()
	outCh, errCh := d.AsyncDecrypt(ct, key, iv)
	select {
	case out := <-outCh:
		if !bytes.Equal(out, plaintext) {
			t.Fatalf("decrypted mismatch: got %x want %x", out, plaintext)
		}
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAsyncDecryptRejectsUnalignedCiphertext(t *testing.T) {
	key := randomBytes(t, 16)
	iv := randomBytes(t, 16)

	d := NewDecrypter()
	outCh, errCh := d.AsyncDecrypt(randomBytes(t, 17), key, iv)
	select {
	case out := <-outCh:
		t.Fatalf("expected error, got output %x", out)
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected non-nil error")
		}
	}
}
