// Package detect recognizes bot-protection and robot-check pages so that
// skipped fetches can be labelled in logs and metrics.
package detect

import (
	"bytes"
	"net/http"
	"strings"
)

// Page is the part of an HTTP response the detectors look at.
type Page struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector reports whether the page is a block or challenge and names its source.
type Detector func(p Page) (detected bool, source string)

// DefaultDetectors returns the standard list of detectors, most specific first.
func DefaultDetectors() []Detector {
	return []Detector{
		detectAmazonRobotCheck,
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs the page through the detectors and returns the first source
// that matches, or "" if none did.
func Analyze(p Page, detectors []Detector) string {
	for _, d := range detectors {
		if detected, source := d(p); detected {
			return source
		}
	}
	return ""
}

// detectAmazonRobotCheck matches Amazon's captcha interstitial, which is served
// with 200 as often as with 503.
func detectAmazonRobotCheck(p Page) (bool, string) {
	if bytes.Contains(p.Body, []byte("/errors/validateCaptcha")) ||
		bytes.Contains(p.Body, []byte("api-services-support@amazon.com")) ||
		bytes.Contains(p.Body, []byte("<title dir=\"ltr\">Robot Check</title>")) {
		return true, "AmazonRobotCheck"
	}
	return false, ""
}

func detectCloudflare(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden && p.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header.Get("Server")), "cloudflare") {
		return true, "Cloudflare"
	}
	if bytes.Contains(p.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(p.Body, []byte("cloudflare-nginx")) ||
		bytes.Contains(p.Body, []byte("cf-turnstile")) ||
		bytes.Contains(p.Body, []byte("Attention Required! | Cloudflare")) {
		return true, "Cloudflare"
	}
	return false, ""
}

func detectAkamai(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header.Get("Server")), "akamai") {
		return true, "Akamai"
	}
	// generic "Reference #" block page
	if bytes.Contains(p.Body, []byte("Reference #")) && bytes.Contains(p.Body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(strings.ToLower(p.Header.Get("Server")), "datadome") {
		return true, "DataDome"
	}
	if p.Header.Get("X-DataDome") != "" || p.Header.Get("X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bytes.Contains(p.Body, []byte("geo.captcha-delivery.com")) || bytes.Contains(p.Body, []byte("datadome")) {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(p Page) (bool, string) {
	if p.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if p.Header.Get("X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if bytes.Contains(p.Body, []byte("client.perimeterx.net")) ||
		bytes.Contains(p.Body, []byte("px-captcha")) ||
		bytes.Contains(p.Body, []byte("_pxBlock")) {
		return true, "PerimeterX"
	}
	return false, ""
}
