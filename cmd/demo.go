package cmd

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
)

// demoPeer stands in for the stats endpoint when running against the
// emulator. It reports CPU usage followed by two temperatures.
func demoPeer(path string) http.Handler {
	path, _, _ = strings.Cut(path, "?")
	if path == "" {
		path = "/"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "[%d,%d,%d]", rand.IntN(100), 40+rand.IntN(30), 35+rand.IntN(25))
	})
	return mux
}
