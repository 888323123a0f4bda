// Package otpcode issues the six digit codes used for email verification
// and password reset. Each code is a TOTP derived from a per-request secret
// stored on the user row.
package otpcode

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const issuer = "CRM Imobiliario"

type Generator struct {
	opts totp.ValidateOpts
}

// New returns a generator whose codes rotate every step. Verification
// accepts the previous and next step as well.
func New(step time.Duration) *Generator {
	period := uint(step / time.Second)
	if period == 0 {
		period = 300
	}
	return &Generator{opts: totp.ValidateOpts{
		Period:    period,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}}
}

// NewSecret returns a fresh base32 secret for account
func (g *Generator) NewSecret(account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      g.opts.Period,
		Digits:      g.opts.Digits,
		Algorithm:   g.opts.Algorithm,
	})
	if err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return key.Secret(), nil
}

func (g *Generator) Code(secret string, at time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, at, g.opts)
	if err != nil {
		return "", fmt.Errorf("generate totp code: %w", err)
	}
	return code, nil
}

// Verify reports whether code is valid for secret around at. Malformed
// secrets never verify.
func (g *Generator) Verify(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, g.opts)
	return err == nil && ok
}
