package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/juju/errors"
)

// BackendError is a failure reported by the backend with a status that has
// no error kind of its own
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (status code = %d)", e.StatusCode)
	}
	return fmt.Sprintf("backend error (status code = %d): %s", e.StatusCode, e.Message)
}

// IsBackendError reports whether err, or its cause, came from the backend
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// do sends a request with an optional JSON body
func (c *client) do(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Annotate(err, "cannot encode request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, errors.Trace(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Debugf("%s %s", method, url)
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "%s %s", method, url)
	}
	return resp, nil
}

// call performs a request and decodes its JSON response into v, when v is
// not nil. what names the resource in error messages.
func (c *client) call(ctx context.Context, method, url string, body, v interface{}, what string) error {
	resp, err := c.do(ctx, method, url, body)
	if err != nil {
		return errors.Trace(err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, v, what)
}

// decodeResponse maps error statuses to error kinds and decodes successful
// bodies
func decodeResponse(resp *http.Response, v interface{}, what string) error {
	if resp.StatusCode < 300 {
		if v == nil || resp.StatusCode == http.StatusNoContent {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return errors.Annotatef(err, "unexpected response for %s (status code = %d)", what, resp.StatusCode)
		}
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Annotatef(err, "cannot read backend message for %s (status code = %d)", what, resp.StatusCode)
	}
	detail := parseErrorMessage(body)
	suffix := ""
	if detail != "" {
		suffix = " (" + detail + ")"
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return errors.BadRequestf("%s%s", what, suffix)
	case http.StatusUnauthorized:
		return errors.Unauthorizedf("%s%s", what, suffix)
	case http.StatusForbidden:
		return errors.Forbiddenf("%s%s", what, suffix)
	case http.StatusNotFound:
		return errors.NotFoundf("%s%s", what, suffix)
	case http.StatusConflict:
		return errors.AlreadyExistsf("%s%s", what, suffix)
	}
	return errors.Annotate(&BackendError{StatusCode: resp.StatusCode, Message: detail}, what)
}

// parseErrorMessage extracts the message of an error body: the "error" or
// "message" field of a JSON object, or the trimmed body itself
func parseErrorMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "message", "msg"} {
			if msg, ok := payload[key]; ok {
				if s, ok := msg.(string); ok {
					return s
				}
				if encoded, err := json.Marshal(msg); err == nil {
					return string(encoded)
				}
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:197] + "..."
	}
	return text
}
