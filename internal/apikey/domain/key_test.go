package domain

import (
	"strings"
	"testing"
)

func TestGenerateKeyFormat(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(key, KeyPrefix) {
		t.Fatalf("expected prefix %q, got %q", KeyPrefix, key)
	}
	secret := strings.TrimPrefix(key, KeyPrefix)
	if len(secret) != keySecretLength {
		t.Fatalf("expected %d secret chars, got %d", keySecretLength, len(secret))
	}
	for _, c := range secret {
		if !strings.ContainsRune(keyAlphabet, c) {
			t.Fatalf("unexpected character %q in key", c)
		}
	}
}

func TestGenerateKeyUsesFullAlphabet(t *testing.T) {
	// 200 keys give 9600 draws; a uniform sampler misses a symbol with
	// vanishing probability, so absence means the mapping is broken.
	seen := make(map[rune]struct{})
	for i := 0; i < 200; i++ {
		key, err := GenerateKey()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		for _, c := range strings.TrimPrefix(key, KeyPrefix) {
			seen[c] = struct{}{}
		}
	}
	for _, c := range keyAlphabet {
		if _, ok := seen[c]; !ok {
			t.Fatalf("symbol %q never drawn", c)
		}
	}
}

func TestGenerateKeyUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		key, err := GenerateKey()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = struct{}{}
	}
}
