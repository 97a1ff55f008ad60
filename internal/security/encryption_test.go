package security

import (
	"strings"
	"testing"
)

func TestTokenCipher_RoundTrip(t *testing.T) {
	c, err := NewTestTokenCipher()
	if err != nil {
		t.Fatalf("NewTestTokenCipher: %v", err)
	}
	const token = "eyJhbGciOiJSUzI1NiJ9.payload.signature"

	sealed, err := c.Encrypt(token)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !IsEncrypted(sealed) {
		t.Fatalf("sealed token missing prefix: %q", sealed)
	}
	if strings.Contains(sealed, "payload") {
		t.Fatal("sealed token leaks plaintext")
	}

	plain, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != token {
		t.Errorf("Decrypt = %q, want %q", plain, token)
	}
}

func TestTokenCipher_FreshKeyPerToken(t *testing.T) {
	c, err := NewTestTokenCipher()
	if err != nil {
		t.Fatalf("NewTestTokenCipher: %v", err)
	}
	a, err := c.Encrypt("same-token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := c.Encrypt("same-token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same token should differ")
	}
}

func TestTokenCipher_DecryptRejectsGarbage(t *testing.T) {
	c, err := NewTestTokenCipher()
	if err != nil {
		t.Fatalf("NewTestTokenCipher: %v", err)
	}
	for _, in := range []string{"", "plain.jwt.token", "enc.v1.", "enc.v1.!!!.###", "enc.v1.QUJD.QUJD"} {
		if _, err := c.Decrypt(in); err != ErrDecryptFailed {
			t.Errorf("Decrypt(%q): want ErrDecryptFailed, got %v", in, err)
		}
	}
}

func TestTokenCipher_DecryptRejectsTampering(t *testing.T) {
	c, err := NewTestTokenCipher()
	if err != nil {
		t.Fatalf("NewTestTokenCipher: %v", err)
	}
	sealed, err := c.Encrypt("token-body")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	// Flip a character near the end of the ciphertext segment.
	tampered := sealed[:len(sealed)-2] + "AA"
	if tampered == sealed {
		tampered = sealed[:len(sealed)-2] + "BB"
	}
	if _, err := c.Decrypt(tampered); err != ErrDecryptFailed {
		t.Errorf("want ErrDecryptFailed for tampered token, got %v", err)
	}
}

func TestIsEncrypted(t *testing.T) {
	if IsEncrypted("eyJhbGciOiJSUzI1NiJ9.a.b") {
		t.Error("plain JWS should not be detected as encrypted")
	}
	if !IsEncrypted("enc.v1.abc.def") {
		t.Error("envelope prefix should be detected")
	}
}

func TestKeyring_Lookup(t *testing.T) {
	c, err := NewTestTokenCipher()
	if err != nil {
		t.Fatalf("NewTestTokenCipher: %v", err)
	}
	k := NewKeyring("primary")
	k.Add("primary", c)

	if got := k.Get(""); got != c {
		t.Error("empty key id should fall back to default")
	}
	if got := k.Get("primary"); got != c {
		t.Error("explicit key id should resolve")
	}
	if got := k.Get("unknown"); got != nil {
		t.Error("unknown key id should return nil")
	}
	var nilRing *Keyring
	if nilRing.Get("primary") != nil {
		t.Error("nil keyring should return nil")
	}
}
