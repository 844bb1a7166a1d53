package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter tokenizes ESP-AT output. It uses the signature of bufio.SplitFunc
// so it can be directly used with bufio.Scanner.
//
// It splits the input by CRLF line endings and also recognizes the CIPSEND
// input prompt ("> "), which the module prints without a line ending.
//
// Important: This splitter assumes "No Echo" mode (ATE0). With echo on, the
// echoed command line comes back as an ordinary token.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	// 1. Match send prompt
	if bytes.HasPrefix(data, []byte(Prompt+" ")) {
		return len(Prompt) + 1, data[0:len(Prompt)], nil
	}

	// 2. Match standard line ending with CRLF
	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// Classify identifies the nature of a single line of module output.
func Classify(line string) ResponseType {
	if line == Prompt {
		return TypePrompt
	}

	// Direct matches for final results
	switch line {
	case OK, ERROR, FAIL, SendOK, SendFail:
		return TypeFinal
	case UrcWifiConnected, UrcWifiGotIP, UrcWifiDisconnected, UrcConnect, UrcClosed, UrcReady, Busy:
		return TypeURC
	}

	// Prefix matches
	switch {
	case strings.HasPrefix(line, IPDIntroducer):
		return TypeURC
	default:
		return TypeData
	}
}

// Lines splits a complete response into its non-empty lines.
func Lines(response string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(response))
	scanner.Split(Splitter)
	for scanner.Scan() {
		if token := scanner.Text(); token != "" {
			lines = append(lines, token)
		}
	}
	return lines
}
