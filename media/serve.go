package media

import (
	"io"
	"net/http"

	"vidlingo/errors"
)

// Serve streams the file at path to the client, honoring an optional Range
// header. The file handle is released on every exit path, including client
// disconnects, which surface as a copy error.
func Serve(w http.ResponseWriter, r *http.Request, path string) {
	const op = "media.Serve"

	desc := Describe(path, r.Header.Get("Range"))

	switch desc.Status {
	case http.StatusNotFound:
		writeError(w, errors.NotFound(op, nil, "File not found"))
		return
	case http.StatusRequestedRangeNotSatisfiable:
		writeError(w, errors.RangeNotSatisfiable(op, "Requested range not satisfiable"))
		return
	}
	defer desc.Body.Close()

	for k, v := range desc.Headers() {
		w.Header().Set(k, v)
	}
	w.WriteHeader(desc.Status)

	if r.Method == http.MethodHead {
		return
	}
	io.Copy(w, desc.Body)
}

// writeError answers the player in plain text. Stream responses carry no
// JSON envelope.
func writeError(w http.ResponseWriter, err *errors.AppError) {
	http.Error(w, err.Message, err.Code)
}
