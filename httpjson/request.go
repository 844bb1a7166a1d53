package httpjson

import "strings"

// NewRequest returns the HTTP/1.0 GET request written to the socket. The
// peer closes the connection after responding, which is what ends the
// raw stream collection.
func NewRequest(host, path string) []byte {
	if path == "" {
		path = "/"
	}
	var sb strings.Builder
	sb.WriteString("GET ")
	sb.WriteString(path)
	sb.WriteString(" HTTP/1.0\r\nHost: ")
	sb.WriteString(host)
	sb.WriteString("\r\nAccept: application/json\r\nConnection: close\r\n\r\n")
	return []byte(sb.String())
}
