package extract

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestProductLinks_AbsoluteOnly(t *testing.T) {
	base := mustParse(t, "https://amazon.de/s?k=book")
	html := `<html><body>
		<a href="https://amazon.de/Some-Book/dp/B000000001">1</a>
		<a href="https://amazon.de/help">help</a>
		<a href="https://amazon.de/Other/dp/B000000002?ref=sr_1">2</a>
		<a>no href</a>
		<a href="https://amazon.de/Some-Book/dp/B000000001">dup</a>
	</body></html>`

	got, err := ProductLinks(base, strings.NewReader(html), DefaultMarker)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"https://amazon.de/Some-Book/dp/B000000001",
		"https://amazon.de/Other/dp/B000000002?ref=sr_1",
		"https://amazon.de/Some-Book/dp/B000000001",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ProductLinks() = %q, want %q", got, want)
	}
}

func TestProductLinks_RelativeResolvedAgainstRequestHost(t *testing.T) {
	base := mustParse(t, "https://amazon.co.uk/s?k=lamp")
	html := `<a href="/Desk-Lamp/dp/B0LAMP/ref=sr_1_1?keywords=lamp">lamp</a>
		<a href="/sspa/click?url=%2Fdp%2FB0X">sponsored</a>`

	got, err := ProductLinks(base, strings.NewReader(html), "/dp/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"https://amazon.co.uk/Desk-Lamp/dp/B0LAMP/ref=sr_1_1?keywords=lamp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ProductLinks() = %q, want %q", got, want)
	}
}

func TestProductLinks_NoMatches(t *testing.T) {
	base := mustParse(t, "https://amazon.com/s?k=x")
	got, err := ProductLinks(base, strings.NewReader(`<p>no results</p>`), "/dp/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no links, got %q", got)
	}
}

func TestProductLinks_CustomMarker(t *testing.T) {
	base := mustParse(t, "https://amazon.com/s?k=x")
	html := `<a href="/gp/product/B01">a</a><a href="/dp/B02">b</a>`

	got, err := ProductLinks(base, strings.NewReader(html), "/gp/product/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []string{"https://amazon.com/gp/product/B01"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ProductLinks() = %q, want %q", got, want)
	}
}

func TestProductLinks_NilBase(t *testing.T) {
	if _, err := ProductLinks(nil, strings.NewReader(""), ""); err == nil {
		t.Fatal("expected error for nil base")
	}
}

func TestAbsolute(t *testing.T) {
	base := mustParse(t, "http://127.0.0.1:8080/s?k=book")

	tests := []struct {
		href string
		want string
	}{
		{"/dp/B01", "http://127.0.0.1:8080/dp/B01"},
		{"dp/B01", "http://127.0.0.1:8080/dp/B01"},
		{"https://amazon.com/dp/B01", "https://amazon.com/dp/B01"},
		{"http://other.example/dp/B01", "http://other.example/dp/B01"},
		// scheme-relative hrefs keep their own host and take only the scheme
		{"//cdn.example/dp/B01", "http://cdn.example/dp/B01"},
		{"/a/../dp/B01", "http://127.0.0.1:8080/dp/B01"},
		{"/dp/B01 x", "http://127.0.0.1:8080/dp/B01%20x"},
		{"/dp/%zz", "http://127.0.0.1:8080/dp/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := Absolute(base, tt.href); got != tt.want {
				t.Errorf("Absolute(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}
