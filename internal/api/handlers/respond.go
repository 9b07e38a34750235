package handlers

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/vmihailenco/msgpack/v5"
)

// FormatMsgPack selects MessagePack responses via ?format=msgpack
const FormatMsgPack = "msgpack"

// respond writes data as JSON, or as MessagePack when the request asks
// for it; struct fields use their json tags in both encodings
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if r.URL.Query().Get("format") == FormatMsgPack {
		w.Header().Set("Content-Type", "application/msgpack")
		w.WriteHeader(status)

		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		_ = enc.Encode(data)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respond(w, r, status, map[string]string{
		"error": message,
	})
}
