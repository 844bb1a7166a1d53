package emulator

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"i4.energy/across/espfetch/at"
)

const (
	bootBanner = "\r\n ets Jan  8 2013,rst cause:2, boot mode:(3,6)\r\n\r\nready\r\n"
	fakeBSSID  = "aa:bb:cc:dd:ee:ff"
)

// Association failure codes reported as +CWJAP:<code>.
const (
	joinWrongPassword = 2
	joinNoAP          = 3
)

func final(marker string) string { return at.CRLF + marker + at.CRLF }

// command executes one received line.
func (r *Radio) command(line string) {
	if r.echo {
		r.emit(line + "\r" + at.CRLF)
	}
	if line == "" {
		return
	}
	body, ok := strings.CutPrefix(line, at.Prefix)
	if !ok {
		r.emit(final(at.ERROR))
		return
	}
	r.logger.Debug("command", "body", body)

	name, params, isSet := strings.Cut(body, "=")
	switch {
	case body == "":
		r.emit(final(at.OK))
	case body == "E0":
		r.echo = false
		r.emit(final(at.OK))
	case body == "E1":
		r.echo = true
		r.emit(final(at.OK))
	case body == "+RST":
		r.emit(final(at.OK))
		r.reset()
	case isSet && name == "+CWMODE":
		r.setMode(params)
	case body == "+CWJAP?":
		r.queryAP()
	case isSet && name == "+CWJAP":
		r.joinAP(params)
	case body == "+CWQAP":
		r.joined = ""
		r.connected = ""
		r.emit(final(at.OK))
	case isSet && name == "+CIPSTART":
		r.startTCP(params)
	case isSet && name == "+CIPSEND":
		r.announceSend(params)
	case body == "+CIPCLOSE":
		r.closeTCP()
	default:
		r.emit(final(at.ERROR))
	}
}

func (r *Radio) reset() {
	r.echo = true
	r.joined = ""
	r.connected = ""
	r.emit(bootBanner)
}

func (r *Radio) setMode(params string) {
	mode, err := strconv.Atoi(params)
	if err != nil || mode < 1 || mode > 3 {
		r.emit(final(at.ERROR))
		return
	}
	r.mode = mode
	r.emit(final(at.OK))
}

func (r *Radio) queryAP() {
	if r.joined == "" {
		r.emit("No AP" + at.CRLF + final(at.OK))
		return
	}
	r.emit(fmt.Sprintf("%s%s,%q,6,-50%s%s", at.CurrentAP, at.Quote(r.joined), fakeBSSID, at.CRLF, final(at.OK)))
}

func (r *Radio) joinAP(params string) {
	args, err := at.SplitParams(params)
	if err != nil || len(args) < 2 || (r.mode != 1 && r.mode != 3) {
		r.emit(final(at.ERROR))
		return
	}
	ssid, password := args[0], args[1]

	if r.joined != "" {
		r.emit(at.UrcWifiDisconnected + at.CRLF)
	}
	r.joined = ""
	r.connected = ""

	want, known := r.networks[ssid]
	switch {
	case !known:
		r.emit(fmt.Sprintf("%s%d%s", at.CurrentAP, joinNoAP, at.CRLF) + final(at.FAIL))
	case want != password:
		r.emit(fmt.Sprintf("%s%d%s", at.CurrentAP, joinWrongPassword, at.CRLF) + final(at.FAIL))
	default:
		r.joined = ssid
		r.emit(at.UrcWifiConnected + at.CRLF + at.UrcWifiGotIP + at.CRLF + final(at.OK))
	}
}

func (r *Radio) startTCP(params string) {
	args, err := at.SplitParams(params)
	if err != nil || len(args) != 3 || args[0] != "TCP" || r.joined == "" {
		r.emit(final(at.ERROR))
		return
	}
	if r.connected != "" {
		r.emit("ALREADY CONNECTED" + at.CRLF + final(at.ERROR))
		return
	}
	addr := net.JoinHostPort(args[1], args[2])
	if _, ok := r.peers[addr]; !ok {
		r.emit(final(at.FAIL))
		return
	}
	r.connected = addr
	r.emit(at.UrcConnect + at.CRLF + final(at.OK))
}

func (r *Radio) announceSend(params string) {
	n, err := strconv.Atoi(params)
	if r.connected == "" {
		r.emit("link is not valid" + at.CRLF + final(at.ERROR))
		return
	}
	if err != nil || n <= 0 || n > MaxSendLength {
		r.emit(final(at.ERROR))
		return
	}
	r.sendRemaining = n
	r.sendBuf = r.sendBuf[:0]
	r.emit(final(at.OK) + at.Prompt + " ")
}

func (r *Radio) closeTCP() {
	if r.connected == "" {
		r.emit(final(at.ERROR))
		return
	}
	r.connected = ""
	r.emit(at.UrcClosed + at.CRLF + final(at.OK))
}
