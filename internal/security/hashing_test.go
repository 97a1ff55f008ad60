package security

import "testing"

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4) // min cost for test speed
	hash, err := h.Hash([]byte("table-for-two-2024"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "table-for-two-2024" {
		t.Fatal("hash empty or equal to plaintext")
	}
	if err := h.Compare(hash, []byte("table-for-two-2024")); err != nil {
		t.Errorf("Compare with correct password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong-password")); err == nil {
		t.Error("Compare with wrong password should fail")
	}
}

func TestNewHasher_CostClamped(t *testing.T) {
	if h := NewHasher(0); h.Cost <= 0 {
		t.Errorf("zero cost not defaulted: %d", h.Cost)
	}
	if h := NewHasher(100); h.Cost > 31 {
		t.Errorf("cost not clamped: %d", h.Cost)
	}
}

func TestHashRefreshToken_ConstantTimeCompare(t *testing.T) {
	hash := HashRefreshToken("refresh-token-value")
	if hash == "" {
		t.Fatal("empty hash")
	}
	if !RefreshTokenHashEqual("refresh-token-value", hash) {
		t.Error("matching token should compare equal")
	}
	if RefreshTokenHashEqual("other-token", hash) {
		t.Error("different token should not compare equal")
	}
}
