// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/scrypt"

	"menudir/internal/security"
)

const (
	saltLength = 16
	keyLength  = 64

	// maxScryptN bounds the cost read back from a stored hash.
	maxScryptN = 1 << 20
)

// ScryptParams are the scrypt cost parameters stored alongside each hash.
type ScryptParams struct {
	N int
	R int
	P int
}

// DefaultScryptParams match the cost of hashes produced by the previous
// deployment, so existing rows keep verifying.
var DefaultScryptParams = ScryptParams{N: 32768, R: 8, P: 1}

// HashPassword hashes password with DefaultScryptParams.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultScryptParams)
}

// HashPasswordWithParams returns "scrypt:N:r:p$salt$hexdigest".
func HashPasswordWithParams(password string, p ScryptParams) (string, error) {
	salt, err := security.RandomString(saltLength, security.Alphanumeric)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	dk, err := scrypt.Key([]byte(password), []byte(salt), p.N, p.R, p.P, keyLength)
	if err != nil {
		return "", fmt.Errorf("scrypt: %w", err)
	}
	return fmt.Sprintf("scrypt:%d:%d:%d$%s$%s", p.N, p.R, p.P, salt, hex.EncodeToString(dk)), nil
}

// CheckPassword reports whether password matches the encoded hash.
// Malformed hashes never match.
func CheckPassword(encoded, password string) bool {
	method, salt, digest, ok := splitHash(encoded)
	if !ok {
		return false
	}
	p, ok := parseMethod(method)
	if !ok {
		return false
	}
	want, err := hex.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false
	}
	got, err := scrypt.Key([]byte(password), []byte(salt), p.N, p.R, p.P, len(want))
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

func splitHash(encoded string) (method, salt, digest string, ok bool) {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func parseMethod(method string) (ScryptParams, bool) {
	fields := strings.Split(method, ":")
	if len(fields) != 4 || fields[0] != "scrypt" {
		return ScryptParams{}, false
	}
	var nums [3]int
	for i, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 {
			return ScryptParams{}, false
		}
		nums[i] = n
	}
	if nums[0] > maxScryptN {
		return ScryptParams{}, false
	}
	return ScryptParams{N: nums[0], R: nums[1], P: nums[2]}, true
}

// fallbackDummyHash is a DefaultScryptParams hash used when a fresh
// dummy hash cannot be generated.
const fallbackDummyHash = "scrypt:32768:8:1$mDfallbackSalt16$" +
	"27159f06b6e1f8bce848bc9efcee24bd6b81a9a375fd86e9a6597168d5cf26a5" +
	"4229867becece070a344316c85841e725f9b4cb7a33520f2adee89be4c2e1e77"

var (
	dummyOnce sync.Once
	dummy     string
)

// dummyHash is verified against when the email is unknown so that both
// failure paths cost the same.
func dummyHash() string {
	dummyOnce.Do(func() {
		h, err := HashPassword("menudir-dummy-password")
		if err != nil {
			slog.Error("generate dummy password hash", "error", err)
			h = fallbackDummyHash
		}
		dummy = h
	})
	return dummy
}
