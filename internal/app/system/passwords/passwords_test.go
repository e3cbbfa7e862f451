package passwords_test

import (
	"strings"
	"testing"

	"github.com/covertly/identity/internal/app/system/passwords"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := passwords.Hash("Sup3rSecret!")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if hash == "Sup3rSecret!" {
		t.Fatal("hash equals plaintext")
	}
	if !passwords.Verify("Sup3rSecret!", hash) {
		t.Error("Verify rejected the correct password")
	}
	if passwords.Verify("wrong", hash) {
		t.Error("Verify accepted a wrong password")
	}
}

func TestVerify_BadHash(t *testing.T) {
	if passwords.Verify("anything", "not-a-bcrypt-hash") {
		t.Error("Verify accepted a malformed hash")
	}
}

func TestCheckPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantMsgs []string
	}{
		{"acceptable", "Sup3rSecret!", nil},
		{"too short", "A1a!", []string{"at least 8 characters"}},
		{"too long", strings.Repeat("Aa1!", 64), []string{"at most 255 characters"}},
		{"no digit", "NoDigitsHere!", []string{"one digit"}},
		{"no lowercase", "ALLUPPER1!", []string{"one lowercase"}},
		{"no uppercase", "alllowercase1!", []string{"one uppercase"}},
		{"no special", "NoSpecial123", []string{"one special"}},
		{"empty", "", []string{"at least 8 characters", "one digit", "one lowercase", "one uppercase", "one special"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := passwords.CheckPolicy(tt.password)
			if tt.wantMsgs == nil {
				if len(problems) != 0 {
					t.Errorf("CheckPolicy(%q) = %v, want none", tt.password, problems)
				}
				return
			}
			joined := strings.Join(problems, " ")
			for _, want := range tt.wantMsgs {
				if !strings.Contains(joined, want) {
					t.Errorf("CheckPolicy(%q) missing %q in %q", tt.password, want, joined)
				}
			}
		})
	}
}
