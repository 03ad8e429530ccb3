package versioned

import "time"

// Resolution is the precision at which tokens are stored and compared.
const Resolution = time.Microsecond

// Token is the optimistic-concurrency stamp of one row. The zero Token means
// "version unknown" and is never stored.
type Token struct {
	t time.Time
}

// TokenOf normalises t to storage precision in UTC.
func TokenOf(t time.Time) Token {
	if t.IsZero() {
		return Token{}
	}
	return Token{t: t.UTC().Truncate(Resolution)}
}

// Next returns the token for a write happening at now on a row whose current
// token is prev. The result is strictly after prev even when the clock stalls
// or steps backwards.
func Next(now time.Time, prev Token) Token {
	next := TokenOf(now)
	if prev.IsZero() {
		return next
	}
	if floor := prev.t.Add(Resolution); next.t.Before(floor) {
		return Token{t: floor}
	}
	return next
}

func (t Token) Time() time.Time { return t.t }

func (t Token) IsZero() bool { return t.t.IsZero() }

func (t Token) Equal(o Token) bool { return t.t.Equal(o.t) }

func (t Token) After(o Token) bool { return t.t.After(o.t) }

func (t Token) String() string {
	if t.IsZero() {
		return "<none>"
	}
	return t.t.Format(time.RFC3339Nano)
}

// MarshalText encodes the token as RFC 3339 with nanoseconds; the zero token
// encodes as an empty string.
func (t Token) MarshalText() ([]byte, error) {
	if t.IsZero() {
		return []byte{}, nil
	}
	return []byte(t.t.Format(time.RFC3339Nano)), nil
}

func (t *Token) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = Token{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, string(b))
	if err != nil {
		return err
	}
	*t = TokenOf(parsed)
	return nil
}
