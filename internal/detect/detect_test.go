package detect

import (
	"net/http"
	"testing"
)

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want string
	}{
		{
			name: "plain search page",
			page: Page{StatusCode: 200, Header: header("Server", "Server"), Body: []byte(`<a href="/dp/B000">x</a>`)},
			want: "",
		},
		{
			name: "amazon captcha served with 200",
			page: Page{StatusCode: 200, Header: header(), Body: []byte(`<form action="/errors/validateCaptcha">`)},
			want: "AmazonRobotCheck",
		},
		{
			name: "amazon 503 automated access notice",
			page: Page{StatusCode: 503, Header: header(), Body: []byte("please contact api-services-support@amazon.com")},
			want: "AmazonRobotCheck",
		},
		{
			name: "cloudflare server header",
			page: Page{StatusCode: 403, Header: header("Server", "cloudflare"), Body: []byte("Access Denied")},
			want: "Cloudflare",
		},
		{
			name: "cloudflare body on 503",
			page: Page{StatusCode: 503, Header: header(), Body: []byte("<html>... cf-turnstile ...</html>")},
			want: "Cloudflare",
		},
		{
			name: "cloudflare header ignored on 200",
			page: Page{StatusCode: 200, Header: header("Server", "cloudflare"), Body: []byte("OK")},
			want: "",
		},
		{
			name: "akamai server header",
			page: Page{StatusCode: 403, Header: header("Server", "AkamaiGHost")},
			want: "Akamai",
		},
		{
			name: "akamai reference page",
			page: Page{StatusCode: 403, Header: header(), Body: []byte("Access Denied... Reference #123.456")},
			want: "Akamai",
		},
		{
			name: "datadome header",
			page: Page{StatusCode: 403, Header: header("X-DataDome", "protected")},
			want: "DataDome",
		},
		{
			name: "perimeterx body",
			page: Page{StatusCode: 403, Header: header(), Body: []byte("<div id=\"px-captcha\"></div>")},
			want: "PerimeterX",
		},
		{
			name: "unlabelled 403",
			page: Page{StatusCode: 403, Header: header(), Body: []byte("forbidden")},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Analyze(tt.page, DefaultDetectors()); got != tt.want {
				t.Errorf("Analyze() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyze_NilHeader(t *testing.T) {
	p := Page{StatusCode: 403, Body: []byte("forbidden")}
	if got := Analyze(p, DefaultDetectors()); got != "" {
		t.Errorf("expected no detection, got %q", got)
	}
}
