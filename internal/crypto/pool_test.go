package crypto

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPool = "0xabc:secret1,0xdef:secret2"

func TestEncryptDecryptPool(t *testing.T) {
	blob, err := EncryptPool(testPool, "hunter2")
	if err != nil {
		t.Fatalf("EncryptPool: %v", err)
	}
	if strings.Contains(string(blob), "secret1") {
		t.Fatal("ciphertext leaks plaintext")
	}

	got, err := DecryptPool(blob, "hunter2")
	if err != nil {
		t.Fatalf("DecryptPool: %v", err)
	}
	if got != testPool {
		t.Fatalf("got %q, want %q", got, testPool)
	}
}

func TestDecryptPool_WrongPassword(t *testing.T) {
	blob, err := EncryptPool(testPool, "right")
	if err != nil {
		t.Fatalf("EncryptPool: %v", err)
	}
	if _, err := DecryptPool(blob, "wrong"); err == nil {
		t.Fatal("expected error for wrong password")
	}
}

func TestDecryptPool_BadInput(t *testing.T) {
	if _, err := DecryptPool([]byte("not json"), "pw"); err == nil {
		t.Error("expected error for malformed JSON")
	}

	blob, _ := json.Marshal(encryptedPoolJSON{Version: 99})
	if _, err := DecryptPool(blob, "pw"); err == nil || !strings.Contains(err.Error(), "unsupported version") {
		t.Errorf("expected version error, got %v", err)
	}

	if _, err := DecryptPool([]byte("{}"), ""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestEncryptPool_Validation(t *testing.T) {
	if _, err := EncryptPool(testPool, ""); err == nil {
		t.Error("expected error for empty password")
	}
	if _, err := EncryptPool("  ", "pw"); err == nil {
		t.Error("expected error for empty pool")
	}
}

func TestLoadPool(t *testing.T) {
	blob, err := EncryptPool(testPool, "pw")
	if err != nil {
		t.Fatalf("EncryptPool: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pool.json")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("inline wins", func(t *testing.T) {
		got, err := LoadPool(PoolSource{Inline: "a:b", EncryptedPath: path, Password: "pw"})
		if err != nil || got != "a:b" {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("encrypted file", func(t *testing.T) {
		got, err := LoadPool(PoolSource{EncryptedPath: path, Password: "pw"})
		if err != nil || got != testPool {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadPool(PoolSource{EncryptedPath: filepath.Join(t.TempDir(), "nope")}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("nothing configured", func(t *testing.T) {
		if _, err := LoadPool(PoolSource{}); err == nil {
			t.Fatal("expected error")
		}
	})
}
