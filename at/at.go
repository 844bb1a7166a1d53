// Package at holds the ESP-AT protocol vocabulary: command framing, the
// terminal markers that end a response, and the tokens the module inserts
// into live socket data.
//
// Command set: https://docs.espressif.com/projects/esp-at/en/latest/AT_Command_Set/
package at

const (
	// Terminal Control
	Prefix = "AT"
	CRLF   = "\r\n"
	Prompt = ">"

	// Response Codes
	OK       = "OK"
	ERROR    = "ERROR"
	FAIL     = "FAIL"
	SendOK   = "SEND OK"
	SendFail = "SEND FAIL"
	Busy     = "busy p..."

	// URCs (Unsolicited Result Codes)
	UrcWifiConnected    = "WIFI CONNECTED"
	UrcWifiGotIP        = "WIFI GOT IP"
	UrcWifiDisconnected = "WIFI DISCONNECT"
	UrcConnect          = "CONNECT"
	UrcClosed           = "CLOSED"
	UrcReady            = "ready"

	// Inbound socket data: +IPD,<len>[,<remote ip>,<remote port>]:<data>
	IPDIntroducer = "+IPD,"
	IPDTerminator = ':'

	// Query responses
	CurrentAP = "+CWJAP:"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR, FAIL
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CWJAP:...)
	TypePrompt                     // CIPSEND input prompt
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	case TypeData:
		return "data"
	case TypePrompt:
		return "prompt"
	default:
		return "unknown"
	}
}
