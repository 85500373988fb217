// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package twofactor implements the TOTP enrollment state machine:
// NONE -> PENDING on Provision, PENDING -> VERIFIED on a correct code,
// PENDING -> NONE on a wrong one.
package twofactor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"menudir/internal/models"
	"menudir/internal/store"
)

const (
	period     = 30
	skew       = 1
	secretSize = 20 // 160 bits
	qrSize     = 256
)

var (
	// ErrInvalidCode is returned when a code does not match the secret.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrNotProvisioned is returned when the user has no TOTP secret.
	ErrNotProvisioned = errors.New("two-factor authentication is not set up")
)

// Provisioning is what an authenticator app needs to enroll a secret.
type Provisioning struct {
	URI    string
	QRCode string // base64 PNG
	Secret string
}

// Flow drives TOTP enrollment against the credential store.
type Flow struct {
	store  store.Manager
	issuer string
	now    func() time.Time
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// New creates a Flow. issuer is the label shown by authenticator apps.
func New(s store.Manager, issuer string, opts ...Option) *Flow {
	f := &Flow{store: s, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Provision stores a fresh secret for a user in NONE. A user that is
// already PENDING or VERIFIED is returned unchanged.
func (f *Flow) Provision(ctx context.Context, userID int64) (*models.User, error) {
	var user *models.User
	err := f.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := r.Users().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		user = u
		if u.TOTPState() != models.TOTPNone {
			return nil
		}

		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      f.issuer,
			AccountName: u.Email,
			Period:      period,
			SecretSize:  secretSize,
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err != nil {
			return fmt.Errorf("totp generate: %w", err)
		}

		secret := key.Secret()
		if err := r.Users().SetTOTP(ctx, u.ID, &secret, false); err != nil {
			return err
		}
		u.TOTPSecret = &secret
		u.TOTPVerified = false
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("provision totp: %w", err)
	}
	return user, nil
}

// ProvisioningURI builds the otpauth URI and its QR code for a PENDING
// or VERIFIED user.
func (f *Flow) ProvisioningURI(u *models.User) (*Provisioning, error) {
	if u == nil || u.TOTPState() == models.TOTPNone {
		return nil, ErrNotProvisioned
	}
	secret := *u.TOTPSecret

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", f.issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", "6")
	v.Set("period", strconv.Itoa(period))
	uri := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + f.issuer + ":" + u.Email,
		RawQuery: v.Encode(),
	}

	png, err := qrcode.Encode(uri.String(), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	return &Provisioning{
		URI:    uri.String(),
		QRCode: base64.StdEncoding.EncodeToString(png),
		Secret: secret,
	}, nil
}

// Verify checks code against the user's secret. A correct code confirms
// a PENDING secret; a wrong one discards it. A VERIFIED secret is never
// discarded.
func (f *Flow) Verify(ctx context.Context, userID int64, code string) (*models.User, error) {
	var (
		user    *models.User
		invalid bool
	)
	err := f.store.WithTx(ctx, func(ctx context.Context, r store.Repositories) error {
		u, err := r.Users().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		user = u

		state := u.TOTPState()
		if state == models.TOTPNone {
			return ErrNotProvisioned
		}

		if Check(*u.TOTPSecret, code, f.now()) {
			if state == models.TOTPPending {
				if err := r.Users().SetTOTP(ctx, u.ID, u.TOTPSecret, true); err != nil {
					return err
				}
				u.TOTPVerified = true
			}
			return nil
		}

		invalid = true
		if state == models.TOTPPending {
			if err := r.Users().SetTOTP(ctx, u.ID, nil, false); err != nil {
				return err
			}
			u.TOTPSecret = nil
			u.TOTPVerified = false
			slog.Info("pending totp secret discarded", "user_id", u.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotProvisioned) {
			return nil, err
		}
		return nil, fmt.Errorf("verify totp: %w", err)
	}
	if invalid {
		return user, ErrInvalidCode
	}
	return user, nil
}

// Disable removes the secret whatever the current state.
func (f *Flow) Disable(ctx context.Context, userID int64) error {
	if err := f.store.Users().SetTOTP(ctx, userID, nil, false); err != nil {
		return fmt.Errorf("disable totp: %w", err)
	}
	return nil
}

// Check reports whether code is valid for secret at the given instant,
// allowing one step of clock skew either way.
func Check(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at.UTC(), totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
