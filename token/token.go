package token

// A Token is the atomic unit crossing a channel for one logical step. Valid
// is the target-level protocol bit carried by the token; whether a token
// exists at all for a given step (the host-level valid) is expressed by its
// presence in the channel queue.
type Token struct {
	Valid bool
	Bits  []uint64
}

// MakeToken creates a token carrying the given payload words.
func MakeToken(valid bool, bits ...uint64) Token {
	return Token{Valid: valid, Bits: bits}
}
