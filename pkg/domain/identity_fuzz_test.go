package domain

import "testing"

// FuzzParseIdentityKey checks parsing never panics and accepted keys
// round-trip unchanged.
func FuzzParseIdentityKey(f *testing.F) {
	f.Add("")
	f.Add("G" + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA")
	f.Add(EncodeAccountID([32]byte{1, 2, 3}))
	f.Add("not-an-account")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		key, err := ParseIdentityKey(input)
		if err != nil {
			return
		}
		again, err := ParseIdentityKey(key.String())
		if err != nil {
			t.Errorf("valid key failed round-trip: %v", err)
		}
		if again != key {
			t.Error("round-trip changed key")
		}
	})
}
