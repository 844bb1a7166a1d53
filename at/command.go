package at

import (
	"strconv"
	"strings"
)

// Command is one AT command body, without the "AT" prefix and line ending.
// Commands are immutable once built.
type Command struct {
	body     string
	redacted string
}

// Raw wraps a literal command body such as "E0" or "+CWMODE=1".
func Raw(body string) Command { return Command{body: body} }

// Exec builds an execute command: "+RST".
func Exec(name string) Command { return Command{body: name} }

// Query builds a query command: "+CWJAP?".
func Query(name string) Command { return Command{body: name + "?"} }

// String returns the command body.
func (c Command) String() string { return c.body }

// Redacted returns the command body with secret parameters masked. It is
// the form that may be logged or captured.
func (c Command) Redacted() string {
	if c.redacted != "" {
		return c.redacted
	}
	return c.body
}

// Line returns the bytes sent on the wire: optional prefix, body, CRLF.
func (c Command) Line(prefix bool) []byte {
	n := len(c.body) + len(CRLF)
	if prefix {
		n += len(Prefix)
	}
	line := make([]byte, 0, n)
	if prefix {
		line = append(line, Prefix...)
	}
	line = append(line, c.body...)
	return append(line, CRLF...)
}

// Builder assembles a set command of the form +NAME=<p1>,<p2>,...
type Builder struct {
	name   string
	params []string
	masked []string
	secret bool
}

// Set starts a set command named name (including the leading '+').
func Set(name string) *Builder {
	return &Builder{name: name}
}

// String appends a quoted string parameter. Quotes, commas and backslashes
// inside s are backslash-escaped as the AT parser requires.
func (b *Builder) String(s string) *Builder {
	p := Quote(s)
	b.params = append(b.params, p)
	b.masked = append(b.masked, p)
	return b
}

// Secret appends a quoted string parameter that Redacted masks.
func (b *Builder) Secret(s string) *Builder {
	b.params = append(b.params, Quote(s))
	b.masked = append(b.masked, `"***"`)
	b.secret = true
	return b
}

// Quote returns s as a quoted AT string parameter.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', ',', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Int appends a decimal integer parameter.
func (b *Builder) Int(n int) *Builder {
	p := strconv.Itoa(n)
	b.params = append(b.params, p)
	b.masked = append(b.masked, p)
	return b
}

// Build returns the finished command.
func (b *Builder) Build() Command {
	c := Command{body: b.name + "=" + strings.Join(b.params, ",")}
	if b.secret {
		c.redacted = b.name + "=" + strings.Join(b.masked, ",")
	}
	return c
}

// Fixed commands used by the session sequencer.
var (
	CmdAttention   = Raw("")
	CmdEchoOff     = Raw("E0")
	CmdReset       = Exec("+RST")
	CmdStationMode = Set("+CWMODE").Int(1).Build()
	CmdQueryAP     = Query("+CWJAP")
	CmdCloseTCP    = Exec("+CIPCLOSE")
)

// JoinAP associates with an access point.
func JoinAP(ssid, password string) Command {
	return Set("+CWJAP").String(ssid).Secret(password).Build()
}

// StartTCP opens the single TCP connection.
func StartTCP(host string, port int) Command {
	return Set("+CIPSTART").String("TCP").String(host).Int(port).Build()
}

// SendLength announces that n bytes of socket data follow.
func SendLength(n int) Command {
	return Set("+CIPSEND").Int(n).Build()
}
