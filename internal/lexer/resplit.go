package lexer

// ResplitGreater splits one '>' off a compound greater-than token, yielding
// the token that would arise from re-lexing the remainder. The parser uses
// this when it closes a generic argument list and the current token is '>>'
// or '>>>': one '>' is consumed semantically and the remainder is pushed back
// as a synthetic token at the following column.
//
//	>>   → >     (one '>' remains)
//	>>>  → >>    (two '>' remain)
//	>>=  → >=
//	>>>= → >>=
//
// The returned bool is false when the token is not resplittable (a single
// '>' or any unrelated token), in which case the token is returned unchanged.
func ResplitGreater(tok Token) (Token, bool) {
	var rest TokenType
	switch tok.Type {
	case SHR:
		rest = GREATER
	case USHR:
		rest = SHR
	case SHR_ASSIGN:
		rest = GREATER_EQ
	case USHR_ASSIGN:
		rest = SHR_ASSIGN
	default:
		return tok, false
	}

	pos := tok.Pos
	pos.Column++
	pos.Offset++
	return NewToken(rest, rest.String(), pos), true
}
