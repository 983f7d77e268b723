//go:build conformance

package conformance

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

// gatewayURL builds a full URL for the given path, which should start with "/".
func gatewayURL(path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

// doRequest performs an HTTP request and returns the response.
func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// doJSON performs a GET and returns the decoded JSON body as map[string]any.
// The admin token is sent when one is configured.
func doJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	resp := doRequest(t, req)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal JSON: %v\nbody: %s", err, string(data))
	}
	return resp.StatusCode, raw
}

// assertEnvelopeShape validates the JSON response envelope structure.
func assertEnvelopeShape(t *testing.T, raw map[string]any) {
	t.Helper()

	success, ok := raw["success"]
	if !ok {
		t.Error("envelope missing 'success' field")
	} else if _, ok := success.(bool); !ok {
		t.Errorf("'success' should be bool, got %T", success)
	}

	for _, field := range []string{"errors", "messages"} {
		list, ok := raw[field]
		if !ok {
			t.Errorf("envelope missing %q field", field)
			continue
		}
		arr, ok := list.([]any)
		if !ok {
			t.Errorf("%q should be array, got %T", field, list)
			continue
		}
		for i, e := range arr {
			obj, ok := e.(map[string]any)
			if !ok {
				t.Errorf("%s[%d] should be object, got %T", field, i, e)
				continue
			}
			if _, ok := obj["code"]; !ok {
				t.Errorf("%s[%d] missing 'code'", field, i)
			}
			if _, ok := obj["message"]; !ok {
				t.Errorf("%s[%d] missing 'message'", field, i)
			}
		}
	}
}

// assertField validates a field exists in an object and has the expected Go type.
// Returns the typed value.
func assertField[T any](t *testing.T, obj map[string]any, field string) T {
	t.Helper()
	val, ok := obj[field]
	if !ok {
		var zero T
		t.Errorf("missing field %q", field)
		return zero
	}
	typed, ok := val.(T)
	if !ok {
		var zero T
		t.Errorf("field %q: expected %T, got %T (%v)", field, zero, val, val)
		return zero
	}
	return typed
}

// requireTargetImage skips the test unless a known-good image is configured.
func requireTargetImage(t *testing.T) string {
	t.Helper()
	if contentID == "" || assetPath == "" {
		t.Skip("GW_TARGET_CONTENT_ID and GW_TARGET_ASSET_PATH not set")
	}
	return "/" + contentID + "/" + assetPath
}
