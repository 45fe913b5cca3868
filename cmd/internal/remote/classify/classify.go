package classify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Classifier decides the kind and retryability of a failed attempt.
type Classifier interface {
	Classify(err error) *Error
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) *Error

func (f ClassifierFunc) Classify(err error) *Error { return f(err) }

// Default returns the standard table-driven classifier.
func Default() Classifier { return ClassifierFunc(Classify) }

// Classify maps a raw outcome onto the fixed table. A nil error yields nil; an error that is
// already classified is returned as is.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.Canceled) {
		return newError(KindCancelled, 0, "", err)
	}

	var re *ResponseError
	if errors.As(err, &re) {
		return newError(kindForStatus(re.StatusCode), re.StatusCode, bodyMessage(re.Body), err)
	}

	var me *MalformedResponseError
	if errors.As(err, &me) {
		return newError(KindUnknown, me.StatusCode, "", err)
	}

	// Nothing was received: refused, reset, DNS failure or per-attempt timeout.
	return newError(KindUnreachable, 0, "", err)
}

func newError(k Kind, status int, msg string, raw error) *Error {
	if msg == "" {
		msg = statusMessages[status]
	}
	if msg == "" {
		msg = DefaultMessage(k)
	}
	return &Error{
		Kind:       k,
		Message:    msg,
		Retryable:  k.Retryable(),
		HTTPStatus: status,
		Err:        raw,
	}
}

// bodyMessage extracts {"message": "..."} or {"error": {"message": "..."}}.
func bodyMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if m := strings.TrimSpace(payload.Message); m != "" {
		return payload.Message
	}
	var nested struct {
		Message string `json:"message"`
	}
	if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &nested) == nil &&
		strings.TrimSpace(nested.Message) != "" {
		return nested.Message
	}
	return ""
}
