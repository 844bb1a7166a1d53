package emulator

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"i4.energy/across/espfetch/at"
)

// transmit hands the completed +CIPSEND payload to the connected peer and
// streams its reply back as +IPD segments. The peer closes the connection
// after one response, as an HTTP/1.0 server does.
func (r *Radio) transmit() {
	payload := r.sendBuf
	r.sendBuf = nil
	r.emit(fmt.Sprintf("%sRecv %d bytes%s%s%s%s", at.CRLF, len(payload), at.CRLF, at.CRLF, at.SendOK, at.CRLF))

	reply, err := r.serve(payload)
	if err != nil {
		r.logger.Debug("peer dropped request", "error", err)
	}
	for len(reply) > 0 {
		n := min(len(reply), r.segmentSize)
		r.emit(fmt.Sprintf("%s%s%d%c", at.CRLF, at.IPDIntroducer, n, at.IPDTerminator) + string(reply[:n]))
		reply = reply[n:]
	}

	r.connected = ""
	r.emit(at.CRLF + at.ClosedMarker)
}

// serve runs the peer handler for an HTTP request and returns the
// serialized HTTP/1.0 response.
func (r *Radio) serve(payload []byte) ([]byte, error) {
	handler := r.peers[r.connected]
	if handler == nil {
		return nil, fmt.Errorf("no peer at %s", r.connected)
	}

	req, err := http.ReadRequest(bufio.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	req.RemoteAddr = "192.168.4.2:4000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	resp := rec.Result()
	body := rec.Body.Bytes()
	resp.Proto, resp.ProtoMajor, resp.ProtoMinor = "HTTP/1.0", 1, 0
	resp.Close = true
	resp.ContentLength = int64(len(body))
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var out bytes.Buffer
	if err := resp.Write(&out); err != nil {
		return nil, fmt.Errorf("write response: %w", err)
	}
	return out.Bytes(), nil
}
