package iconcache

import "strings"

// KeyPrefix namespaces icon records inside a shared store.
const KeyPrefix = "bookie_icon_cache_"

// Key returns the store key for rawURL.
func Key(rawURL string) string {
	return KeyPrefix + encodeComponent(rawURL)
}

// encodeComponent percent-encodes s the way JavaScript's encodeURIComponent
// does, so keys written by the browser extension and by this module agree.
func encodeComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreservedComponent(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func unreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
