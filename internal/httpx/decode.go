package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxRequestBodySize caps JSON request bodies at 64KB.
// The largest payload accepted is a 2048-character URL.
const MaxRequestBodySize = 64 << 10

// DecodeJSON decodes exactly one JSON object from the request body into T.
// Unknown fields are rejected. The returned error message is safe to show to clients.
func DecodeJSON[T any](r *http.Request) (T, error) {
	var v T

	body := http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&v); err != nil {
		var zero T
		return zero, decodeError(err)
	}

	if dec.More() {
		var zero T
		return zero, errors.New("request body contains multiple JSON objects")
	}

	return v, nil
}

func decodeError(err error) error {
	var (
		syntaxErr    *json.SyntaxError
		unmarshalErr *json.UnmarshalTypeError
		maxBytesErr  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("malformed JSON: unexpected end of body")
	case errors.As(err, &unmarshalErr):
		return fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body too large (max %d bytes)", MaxRequestBodySize)
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	default:
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
}
