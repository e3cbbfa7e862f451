package otp_test

import (
	"testing"
	"time"

	"github.com/covertly/identity/internal/app/system/otp"
)

func TestGenerate_FourDigits(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := otp.Generate()
		if code < otp.CodeMin || code > otp.CodeMax {
			t.Fatalf("code %d out of [%d, %d]", code, otp.CodeMin, otp.CodeMax)
		}
	}
}

func TestExpiryUnix(t *testing.T) {
	before := time.Now().Add(10 * time.Minute).Unix()
	got := otp.ExpiryUnix(10 * time.Minute)
	after := time.Now().Add(10 * time.Minute).Unix()
	if got < before || got > after {
		t.Errorf("ExpiryUnix(10m) = %d, want within [%d, %d]", got, before, after)
	}
}

func TestExpiryUnix_ZeroTTLFallsBackToDefault(t *testing.T) {
	got := otp.ExpiryUnix(0)
	want := time.Now().Add(otp.DefaultTTL).Unix()
	if got < want-1 || got > want+1 {
		t.Errorf("ExpiryUnix(0) = %d, want about %d", got, want)
	}
}

// The comparison direction is inherited from the system this service
// replaces: a future expireAt means rejected, a past one means accepted.
func TestExpired_Direction(t *testing.T) {
	now := time.Now()

	if !otp.Expired(now.Add(time.Minute).Unix(), now) {
		t.Error("future expireAt: want expired (rejected)")
	}
	if otp.Expired(now.Add(-time.Minute).Unix(), now) {
		t.Error("past expireAt: want not expired (accepted)")
	}
	if otp.Expired(now.Unix(), now) {
		t.Error("expireAt == now: want not expired")
	}
}
