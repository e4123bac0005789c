package domain

import (
	"encoding/base32"
	"encoding/binary"
	"strings"

	dErrors "veridion/pkg/domain-errors"
)

// IdentityKey is the wallet address that scopes a person's profile and
// verification ledger. Invariant: a valid Stellar account strkey ("G...").
//
// Usage: construct via ParseIdentityKey at trust boundaries; direct casting
// bypasses validation.
type IdentityKey string

const (
	accountIDLength      = 56
	versionByteAccountID = 6 << 3 // 'G'
)

var strkeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ParseIdentityKey validates a Stellar account address and returns it as an
// IdentityKey.
func ParseIdentityKey(s string) (IdentityKey, error) {
	if err := ValidateAccountID(s); err != nil {
		return "", err
	}
	return IdentityKey(s), nil
}

// String returns the wallet address.
func (k IdentityKey) String() string {
	return string(k)
}

// IsZero reports whether the key is unset.
func (k IdentityKey) IsZero() bool {
	return k == ""
}

// PublicKey returns the ed25519 public key the address encodes.
func (k IdentityKey) PublicKey() ([32]byte, error) {
	var key [32]byte
	if err := ValidateAccountID(string(k)); err != nil {
		return key, err
	}
	raw, _ := strkeyEncoding.DecodeString(string(k))
	copy(key[:], raw[1:33])
	return key, nil
}

// ValidateAccountID checks length, alphabet, version byte and CRC16 checksum
// of a Stellar account strkey.
func ValidateAccountID(s string) error {
	if s == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "account id is required")
	}
	if len(s) != accountIDLength {
		return dErrors.New(dErrors.CodeInvalidInput, "account id must be 56 characters")
	}
	if s[0] != 'G' {
		return dErrors.New(dErrors.CodeInvalidInput, "account id must start with G")
	}
	if strings.ToUpper(s) != s {
		return dErrors.New(dErrors.CodeInvalidInput, "account id must be upper case")
	}
	raw, err := strkeyEncoding.DecodeString(s)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "account id is not valid base32")
	}
	if raw[0] != versionByteAccountID {
		return dErrors.New(dErrors.CodeInvalidInput, "account id has wrong version byte")
	}
	payload, sum := raw[:len(raw)-2], binary.LittleEndian.Uint16(raw[len(raw)-2:])
	if crc16(payload) != sum {
		return dErrors.New(dErrors.CodeInvalidInput, "account id checksum mismatch")
	}
	return nil
}

// EncodeAccountID builds the strkey for a raw ed25519 public key.
func EncodeAccountID(publicKey [32]byte) string {
	payload := make([]byte, 0, 35)
	payload = append(payload, versionByteAccountID)
	payload = append(payload, publicKey[:]...)
	payload = binary.LittleEndian.AppendUint16(payload, crc16(payload))
	return strkeyEncoding.EncodeToString(payload)
}

// crc16 is CRC-16/XMODEM as used by strkey.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
