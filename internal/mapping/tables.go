// Package mapping holds the static lookup tables and pure conversion
// functions that translate Matomo's coded tracking fields into the
// vocabulary Umami stores and renders.
//
// Design goals:
//
//  1. Data over logic: every table is a plain map so the destination's
//     evolving display vocabulary can be extended without touching the
//     transformation code that consults it.
//  2. Totality: each lookup carries an explicit fallback, so no input -
//     however malformed - can fail. Unrecognized codes resolve to a
//     sentinel the destination knows how to render, never to the raw code.
//  3. Determinism: tables are read-only for the process lifetime; the same
//     input always maps to the same output.
package mapping

import "strings"

// BrowserTable maps Matomo device-detector browser short codes onto the
// browser names Umami recognizes. Fallback is returned for any code not in
// the table.
type BrowserTable struct {
	Codes    map[string]string
	Fallback string
}

// Map resolves a Matomo browser code. Empty input maps to the fallback as
// well; callers that want NULL semantics for absent fields should check for
// emptiness before consulting the table.
func (t BrowserTable) Map(code string) string {
	if v, ok := t.Codes[strings.ToUpper(code)]; ok {
		return v
	}
	return t.Fallback
}

// OSFallback selects the policy applied to OS codes missing from the table.
// Two policies exist in the field: a generic "unknown" bucket, and "linux"
// (chosen by deployments that want every session to carry a renderable OS
// icon). The default table uses OSFallbackUnknown.
type OSFallback string

const (
	OSFallbackUnknown OSFallback = "unknown"
	OSFallbackLinux   OSFallback = "linux"
)

// OSTable maps Matomo device-detector OS short codes onto Umami OS names.
type OSTable struct {
	Codes    map[string]string
	Fallback OSFallback
}

// Map resolves a Matomo OS code, applying the table's fallback policy for
// unrecognized codes.
func (t OSTable) Map(code string) string {
	if v, ok := t.Codes[strings.ToUpper(code)]; ok {
		return v
	}
	return string(t.Fallback)
}

// DeviceTable maps Matomo's device-type integers onto Umami's small closed
// device vocabulary (desktop / mobile / tablet). Fallback covers codes the
// table does not know; desktop is by far the most common category so it is
// the safe default.
type DeviceTable struct {
	Codes    map[int64]string
	Fallback string
}

// Map resolves a Matomo device-type integer.
func (t DeviceTable) Map(code int64) string {
	if v, ok := t.Codes[code]; ok {
		return v
	}
	return t.Fallback
}

// Browsers is the default browser table.
//
// Matomo stores the short codes assigned by matomo-org/device-detector.
// Umami only renders a fixed set of browser names, so browsers without a
// destination equivalent are collapsed onto their engine family (Chromium
// derivatives onto chrome, Gecko derivatives onto firefox) and everything
// else onto the "unknown" sentinel.
var Browsers = BrowserTable{
	Fallback: "unknown",
	Codes: map[string]string{
		// Major browsers.
		"CH": "chrome",
		"CR": "chrome", // Chromium
		"FF": "firefox",
		"SF": "safari",
		"IE": "ie",
		"ED": "edge",
		"OP": "opera",
		"OI": "opera-mini",

		// Mobile variants.
		"CM": "chrome",
		"FM": "firefox",
		"MF": "firefox",
		"SM": "ios", // Mobile Safari
		"AN": "android",
		"SB": "samsung",
		"MI": "miui",

		// Chromium-based alternatives without their own Umami entry.
		"BR": "brave",
		"VI": "chrome", // Vivaldi
		"AR": "chrome", // Arc
		"WH": "chrome", // Whale
		"YA": "yandexbrowser",
		"QQ": "chrome",
		"UC": "chrome",
		"BD": "chrome",
		"MX": "chrome", // Maxthon
		"SL": "chrome", // Sleipnir
		"KO": "chrome", // Konqueror
		"DU": "chrome", // DuckDuckGo
		"EP": "safari", // Epiphany (WebKit)

		// Gecko-based alternatives.
		"PS": "firefox", // Pale Moon
		"WA": "firefox", // Waterfox
		"FL": "firefox", // Floorp
		"LB": "firefox", // LibreWolf
		"TH": "firefox", // Tor Browser
		"F1": "firefox", // Firefox Focus
		"NS": "firefox", // Netscape

		// WebViews and in-app browsers.
		"CW": "chrome",
		"WV": "chrome",
		"FB": "facebook",
		"IG": "instagram",
		"TT": "chrome", // TikTok in-app
		"LI": "chrome", // LinkedIn in-app
		"TW": "chrome", // Twitter in-app
		"SN": "chrome", // Snapchat in-app

		// Headless / automation.
		"HC": "chrome",
		"PP": "chrome", // Puppeteer
		"PH": "safari", // PhantomJS (WebKit)
	},
}

// OSes is the default OS table.
//
// Windows/iOS version variants collapse onto their base name, Linux
// distributions onto linux. Codes without a renderable destination value
// (legacy mobile platforms, exotic OSes) are deliberately absent and take
// the fallback; the table is a data-completeness contract meant to be
// extended as such codes show up in real data.
var OSes = OSTable{
	Fallback: OSFallbackUnknown,
	Codes: map[string]string{
		// Desktop.
		"WIN": "windows",
		"WXP": "windows",
		"WVI": "windows",
		"WI7": "windows",
		"WI8": "windows",
		"W81": "windows",
		"W10": "windows",
		"W11": "windows",
		"MAC": "mac-os",
		"LIN": "linux",
		"COS": "chrome-os",

		// Mobile.
		"AND": "android",
		"HAR": "android", // HarmonyOS, closest destination match
		"AMZ": "android", // Fire OS
		"KAI": "android",
		"IOS": "ios",
		"IPA": "ios", // iPad
		"IPH": "ios", // iPhone
		"WPH": "windows",
		"WMO": "windows",

		// Linux distributions.
		"UBT": "linux",
		"FED": "linux",
		"DEB": "linux",
		"MIN": "linux",
		"ARC": "linux",
		"CEN": "linux",
		"RHL": "linux",
		"SUS": "linux",
		"GEN": "linux",
		"MAN": "linux",
		"ELE": "linux",
		"POP": "linux",

		// BSD family.
		"BSD": "linux",
		"FRE": "linux",
		"OPE": "open-bsd",
		"NET": "open-bsd",

		"UNK": "unknown",
	},
}

// Devices is the default device-type table. Matomo's device-detector emits
// integers 0-13; Umami stores desktop/mobile/tablet.
var Devices = DeviceTable{
	Fallback: "desktop",
	Codes: map[int64]string{
		0:  "desktop",
		1:  "mobile", // smartphone
		2:  "tablet",
		3:  "mobile", // feature phone
		4:  "desktop", // console
		5:  "desktop", // tv
		6:  "desktop", // car browser
		7:  "desktop", // smart display
		8:  "mobile",  // camera
		9:  "mobile",  // portable media player
		10: "mobile",  // phablet
		11: "desktop", // smart speaker
		12: "mobile",  // wearable
		13: "desktop", // peripheral
	},
}
