package qzone

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/qzarchive/qzarchive/internal/models"
)

// DecodeEnvelope extracts the payload of a JSONP response. The payload lies
// between the first "(" and the last ")", so parentheses inside strings are
// kept. Numbers decode as json.Number.
func DecodeEnvelope(body []byte) (interface{}, error) {
	start := bytes.IndexByte(body, '(')
	if start < 0 {
		return nil, fmt.Errorf("%w: no opening parenthesis", ErrMalformedEnvelope)
	}
	end := bytes.LastIndexByte(body, ')')
	if end <= start {
		return nil, fmt.Errorf("%w: no closing parenthesis", ErrMalformedEnvelope)
	}

	dec := json.NewDecoder(bytes.NewReader(body[start+1 : end]))
	dec.UseNumber()

	var payload interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrMalformedEnvelope)
	}
	return payload, nil
}

// DecodeObject decodes an envelope whose payload must be an object. A
// non-zero "code" field becomes a *ServiceError.
func DecodeObject(body []byte) (models.Raw, error) {
	payload, err := DecodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	obj, ok := models.AsRaw(payload)
	if !ok {
		return nil, fmt.Errorf("%w: payload is %T, not an object", ErrMalformedEnvelope, payload)
	}
	if code, ok := obj.Int("code"); ok && code != 0 {
		msg := obj.String("message")
		if msg == "" {
			msg = obj.String("msg")
		}
		return nil, &ServiceError{Code: code, Message: msg}
	}
	return obj, nil
}
