package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/popcornapp/popcorn-server/internal/http/response"
)

// EnvelopeVersion is the envelope format version sent as "v".
const EnvelopeVersion = response.Version

// EnvelopeTransformer wraps every huma response body in the standard envelope.
// Success bodies become data; *APIError and other errors become the error object.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope:
		return body, nil
	case *APIError:
		return response.Fail(body.Code, body.Message, body.Details), nil
	case error:
		code, _ := strconv.Atoi(status)
		return response.Fail(statusToCode(code), body.Error(), nil), nil
	}

	if code, err := strconv.Atoi(status); err == nil && code >= 400 {
		return response.Fail(statusToCode(code), "request failed", v), nil
	}
	return response.OK(v), nil
}
