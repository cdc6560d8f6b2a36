package mapping

import "testing"

func TestBrowsers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want string
	}{
		{"CH", "chrome"},
		{"CR", "chrome"},
		{"FF", "firefox"},
		{"SF", "safari"},
		{"ED", "edge"},
		{"OP", "opera"},
		{"OI", "opera-mini"},
		{"CM", "chrome"}, // mobile variant collapses onto base browser
		{"SB", "samsung"},
		{"BR", "brave"},
		{"YA", "yandexbrowser"},
		{"FB", "facebook"},
		{"IG", "instagram"},
		{"VI", "chrome"},  // Vivaldi is Chromium-based
		{"AR", "chrome"},  // Arc
		{"DU", "chrome"},  // DuckDuckGo
		{"PS", "firefox"}, // Pale Moon is Gecko-based
		{"F1", "firefox"},
		{"TH", "firefox"},
		{"ch", "chrome"}, // case-insensitive
		{"XX", "unknown"},
		{"", "unknown"},
	}
	for _, tc := range tests {
		if got := Browsers.Map(tc.code); got != tc.want {
			t.Errorf("Browsers.Map(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestOSes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want string
	}{
		{"WIN", "windows"},
		{"WI7", "windows"},
		{"W81", "windows"},
		{"MAC", "mac-os"},
		{"LIN", "linux"},
		{"AND", "android"},
		{"IOS", "ios"},
		{"IPA", "ios"},
		{"IPH", "ios"},
		{"UBT", "linux"}, // distributions collapse onto linux
		{"FED", "linux"},
		{"ARC", "linux"},
		{"POP", "linux"},
		{"FRE", "linux"},
		{"OPE", "open-bsd"},
		{"HAR", "android"},
		{"COS", "chrome-os"},
		{"XXX", "unknown"},
	}
	for _, tc := range tests {
		if got := OSes.Map(tc.code); got != tc.want {
			t.Errorf("OSes.Map(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestOSFallbackPolicy(t *testing.T) {
	t.Parallel()

	// The fallback is a table property, not a code path: a deployment that
	// prefers every session to carry a renderable OS swaps the policy value.
	linuxy := OSTable{Codes: OSes.Codes, Fallback: OSFallbackLinux}
	if got := linuxy.Map("XXX"); got != "linux" {
		t.Errorf("linux-fallback table mapped unknown code to %q, want linux", got)
	}
	if got := OSes.Map("XXX"); got != "unknown" {
		t.Errorf("default table mapped unknown code to %q, want unknown", got)
	}
}

func TestDevices(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int64
		want string
	}{
		{0, "desktop"},
		{1, "mobile"}, // smartphone
		{2, "tablet"},
		{3, "mobile"},
		{5, "desktop"},
		{10, "mobile"},
		{99, "desktop"}, // unknown falls back to the most common category
		{-1, "desktop"},
	}
	for _, tc := range tests {
		if got := Devices.Map(tc.code); got != tc.want {
			t.Errorf("Devices.Map(%d) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestRegions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		country string
		region  string
		want    string
	}{
		{"DE", "02", "BY"},
		{"FR", "A8", "IDF"},
		{"CN", "22", "BJ"},
		{"RU", "48", "MOW"},
		{"CH", "26", "ZH"},
		// Unknown country: original token passes through.
		{"ZZ", "42", "42"},
		// Known country, unmapped region: passthrough as well.
		{"RU", "01", "01"},
		{"DE", "", ""},
	}
	for _, tc := range tests {
		if got := Regions.Convert(tc.country, tc.region); got != tc.want {
			t.Errorf("Regions.Convert(%q, %q) = %q, want %q", tc.country, tc.region, got, tc.want)
		}
	}
}
