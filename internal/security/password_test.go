package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	password := "testPassword123"

	hash, err := h.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty string")
	}

	if hash == password {
		t.Error("HashPassword() returned unhashed password")
	}

	// Test same password produces different hashes (due to salt)
	hash2, err := h.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == hash2 {
		t.Error("HashPassword() should produce different hashes due to salt")
	}
}

func TestCheckPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	password := "mySecurePassword"
	hash, err := h.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{
			name:     "correct password",
			password: password,
			hash:     hash,
			want:     true,
		},
		{
			name:     "incorrect password",
			password: "wrongPassword",
			hash:     hash,
			want:     false,
		},
		{
			name:     "empty password",
			password: "",
			hash:     hash,
			want:     false,
		},
		{
			name:     "plaintext stored value never matches",
			password: password,
			hash:     password,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := h.CheckPassword(tt.password, tt.hash)
			if result != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", result, tt.want)
			}
			if pkg := CheckPassword(tt.password, tt.hash); pkg != tt.want {
				t.Errorf("package CheckPassword() = %v, want %v", pkg, tt.want)
			}
		})
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	if got := NewHasher(1).cost; got != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want default", got)
	}
	if got := NewHasher(99).cost; got != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want default", got)
	}
}
