package teco

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/teco-project/teco-go/tcerr"
)

// decodeResponse interprets one API response. Service APIs report logical
// failures inside a 200 response, so the envelope is probed for an Error
// object before the payload is unmarshaled into out.
func decodeResponse(logger logrus.FieldLogger, resp *http.Response, cfg ServiceConfig, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return tcerr.NewRawError(string(body), tcerr.Context{
			Message: "Unhandled Error",
			Status:  resp.StatusCode,
			Header:  resp.Header,
		})
	}

	envelope := gjson.GetBytes(body, "Response")
	if !gjson.ValidBytes(body) || !envelope.Exists() {
		return fmt.Errorf("decoding response envelope: unexpected body %q", truncateBody(body))
	}

	if errObj := envelope.Get("Error"); errObj.Exists() {
		code := errObj.Get("Code").String()
		errCtx := tcerr.Context{
			RequestID: envelope.Get("RequestId").String(),
			Message:   errObj.Get("Message").String(),
			Status:    resp.StatusCode,
			Header:    resp.Header,
		}
		apiErr := buildAPIError(cfg, code, errCtx)
		if tcerr.IsTyped(apiErr) {
			logger.WithFields(logrus.Fields{
				"tc-error-code": code,
				"tc-request-id": errCtx.RequestID,
			}).Error("API call failed with a service error")
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(envelope.Raw), out); err != nil {
		return fmt.Errorf("decoding response payload: %w", err)
	}
	return nil
}

// buildAPIError probes the config's error domains in order, then the
// platform-common codes, and falls back to an untyped service error.
func buildAPIError(cfg ServiceConfig, code string, errCtx tcerr.Context) error {
	for _, domain := range cfg.Error {
		if err := domain(code, errCtx); err != nil {
			return err
		}
	}
	if err := tcerr.Common(code, errCtx); err != nil {
		return err
	}
	return tcerr.NewServiceError(code, errCtx)
}

func truncateBody(body []byte) string {
	const limit = 256
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
