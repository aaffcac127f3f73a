package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_UsesDefaultCost(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("stored value is not a bcrypt hash: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, expected %d", cost, bcrypt.DefaultCost)
	}

	again, _ := HashPassword("s3cret-pass")
	if again == hash {
		t.Error("hashes of the same password should be salted differently")
	}
}

func TestCheckPassword_Accounts(t *testing.T) {
	local, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{"local account, right password", "s3cret-pass", local, true},
		{"local account, wrong password", "s3cret-pasS", local, false},
		{"directory account without stored hash", "", "", false},
		{"directory account, any password", "s3cret-pass", "", false},
		{"corrupt stored hash", "s3cret-pass", "$2a$10$broken", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, expected %v", got, tt.want)
			}
		})
	}
}
