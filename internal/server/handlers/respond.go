package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/autopipe/internal/foundation/errors"
	"git.home.luguber.info/inful/autopipe/internal/logfields"
	"git.home.luguber.info/inful/autopipe/internal/orchestrator"
)

const contentTypeJSON = "application/json; charset=utf-8"

// respond encodes v before touching the response, so an encode failure is still answered with a
// classified 500 naming what could not be encoded. ?pretty=1 indents the body.
func respond(w http.ResponseWriter, r *http.Request, adapter *errors.HTTPErrorAdapter, status int, v any, what string) {
	body, err := encodeBody(r, v)
	if err != nil {
		adapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to encode "+what).
			WithContext("request_id", orchestrator.RequestIDFromContext(r.Context())).
			Build())
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// status is already on the wire; the client has gone away
		slog.Debug("Response body not delivered",
			logfields.RequestID(orchestrator.RequestIDFromContext(r.Context())),
			logfields.Path(r.URL.Path),
			logfields.Error(err))
	}
}

func encodeBody(r *http.Request, v any) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if wantsPretty(r) {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func wantsPretty(r *http.Request) bool {
	if r == nil {
		return false
	}
	p := r.URL.Query().Get("pretty")
	return p == "1" || p == "true"
}
