package models

import (
	"testing"

	"github.com/mmlivehub/opsboard_backend/utils"
)

func TestCheckLoginPassword(t *testing.T) {
	hash, err := utils.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &User{Password: string(hash)}

	if err := checkLoginPassword(user, "correct horse"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	if err := checkLoginPassword(user, "wrong"); err == nil {
		t.Fatalf("wrong password must not authenticate")
	}
}

func TestCheckLoginPassword_MalformedStoredHash(t *testing.T) {
	user := &User{Password: "not-a-bcrypt-hash"}
	if err := checkLoginPassword(user, "whatever"); err == nil {
		t.Fatalf("malformed stored hash must not authenticate")
	}
}
