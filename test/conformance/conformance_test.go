//go:build conformance

package conformance

import (
	"os"
	"testing"
)

var (
	baseURL    string
	adminToken string
	contentID  string
	assetPath  string
)

// The suite runs against a live gateway. GW_TARGET_CONTENT_ID and
// GW_TARGET_ASSET_PATH name an image the gateway's upstreams can serve;
// tests needing it are skipped when unset.
func TestMain(m *testing.M) {
	baseURL = os.Getenv("GW_TARGET")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	adminToken = os.Getenv("GW_ADMIN_TOKEN")
	contentID = os.Getenv("GW_TARGET_CONTENT_ID")
	assetPath = os.Getenv("GW_TARGET_ASSET_PATH")
	os.Exit(m.Run())
}
