package teco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

const (
	actionHeader   = "X-TC-Action"
	versionHeader  = "X-TC-Version"
	regionHeader   = "X-TC-Region"
	languageHeader = "X-TC-Language"
)

// buildRequest constructs the unsigned request of one operation and returns
// it with the exact payload bytes the signer must cover.
func buildRequest(ctx context.Context, cfg ServiceConfig, op Operation) (*http.Request, []byte, error) {
	rawURL := cfg.EndpointFor(op.Region) + op.Path

	var body []byte
	var query string
	if op.Input != nil {
		switch op.Method {
		case http.MethodGet:
			params, err := flattenParams(op.Input)
			if err != nil {
				return nil, nil, fmt.Errorf("encoding request parameters for %s: %w", op.Action, err)
			}
			query = auth.EncodeQuery(params)
		default:
			encoded, err := json.Marshal(op.Input)
			if err != nil {
				return nil, nil, fmt.Errorf("encoding request body for %s: %w", op.Action, err)
			}
			body = encoded
		}
	}

	r, err := http.NewRequestWithContext(ctx, op.Method, rawURL, bytes.NewReader(body))
	if err != nil || r.URL.Host == "" {
		return nil, nil, &tcerr.InvalidURLError{URL: rawURL}
	}
	r.URL.RawQuery = query

	r.Header.Set(actionHeader, op.Action)
	r.Header.Set(versionHeader, cfg.Version)
	r.Header.Set("User-Agent", UserAgent)
	if reg := op.Region; reg != nil {
		r.Header.Set(regionHeader, reg.ID)
	} else if cfg.Region != nil {
		r.Header.Set(regionHeader, cfg.Region.ID)
	}
	if cfg.Language != "" {
		r.Header.Set(languageHeader, string(cfg.Language))
	}
	switch op.Method {
	case http.MethodPost:
		r.Header.Set("Content-Type", "application/json")
	case http.MethodGet:
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return r, body, nil
}

// flattenParams renders an input model as the dotted query parameters of
// the legacy GET wire format, for example InstanceIds.0=ins-000000.
func flattenParams(input any) (url.Values, error) {
	encoded, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	params := url.Values{}
	if err := flattenValue("", v, params); err != nil {
		return nil, err
	}
	return params, nil
}

func flattenValue(prefix string, v any, params url.Values) error {
	switch value := v.(type) {
	case nil:
	case map[string]any:
		for k, item := range value {
			if err := flattenValue(joinParamName(prefix, k), item, params); err != nil {
				return err
			}
		}
	case []any:
		for i, item := range value {
			if err := flattenValue(joinParamName(prefix, strconv.Itoa(i)), item, params); err != nil {
				return err
			}
		}
	case string:
		params.Set(prefix, value)
	case json.Number:
		params.Set(prefix, value.String())
	case bool:
		params.Set(prefix, strconv.FormatBool(value))
	default:
		return fmt.Errorf("cannot flatten parameter %s of type %T", prefix, v)
	}
	return nil
}

func joinParamName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
