// Package email normalises contact addresses entered on profiles.
package email

import (
	"net/mail"
	"strings"

	dErrors "veridion/pkg/domain-errors"
)

const maxLength = 254

// Normalize trims and lowercases the domain of addr and checks it is a bare
// address ("a@b.c"), not a display-name form. An empty input stays empty.
func Normalize(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", nil
	}
	if len(addr) > maxLength {
		return "", dErrors.New(dErrors.CodeValidation, "email is too long")
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is not a valid address")
	}
	at := strings.LastIndexByte(addr, '@')
	local, domain := addr[:at], strings.ToLower(addr[at+1:])
	if !strings.Contains(domain, ".") {
		return "", dErrors.New(dErrors.CodeValidation, "email domain is not valid")
	}
	return local + "@" + domain, nil
}
