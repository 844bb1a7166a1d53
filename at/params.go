package at

import (
	"errors"
	"strings"
)

// ErrBadParams is returned by SplitParams for an unterminated quoted
// parameter.
var ErrBadParams = errors.New("at: malformed parameters")

// SplitParams splits the parameter list of a set command, the part after
// '=', into its values. Quoted parameters are unquoted and unescaped.
func SplitParams(s string) ([]string, error) {
	var (
		params []string
		sb     strings.Builder
		quoted bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted && c == '\\':
			if i+1 == len(s) {
				return nil, ErrBadParams
			}
			i++
			sb.WriteByte(s[i])
		case c == '"':
			quoted = !quoted
		case !quoted && c == ',':
			params = append(params, sb.String())
			sb.Reset()
		default:
			sb.WriteByte(c)
		}
	}
	if quoted {
		return nil, ErrBadParams
	}
	return append(params, sb.String()), nil
}
