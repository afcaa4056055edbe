package useragent

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"strings"
)

// DefaultPool is the built-in set of desktop and mobile browser User-Agents
// rotated across marketplace requests.
var DefaultPool = []string{
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.96 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:85.0) Gecko/20100101 Firefox/85.0",
	"Mozilla/5.0 (Windows NT 6.1; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/87.0.4280.66 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/535.1 (KHTML, like Gecko) Chrome/90.0.4430.212 Safari/535.1",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_5) AppleWebKit/606.4.5 (KHTML, like Gecko) Version/12.1.1 Safari/606.4.5",
	"Mozilla/5.0 (X11; Linux i686) AppleWebKit/535.19 (KHTML, like Gecko) Ubuntu/11.10 Chrome/90.0.4444.5 Safari/535.19",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:90.0) Gecko/20100101 Firefox/90.0",
	"Mozilla/5.0 (Windows NT 6.1; rv:32.0) Gecko/20100101 Firefox/90.0",
	"Mozilla/5.0 (Windows NT 6.1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.93 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 11_2_3) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.77 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.106 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) Gecko/20100101 Firefox/89.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.1 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 6.1; WOW64; rv:85.0) Gecko/20100101 Firefox/85.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 11_1_0) AppleWebKit/536.5 (KHTML, like Gecko) Chrome/90.0.4430.24 Safari/536.5",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/536.5 (KHTML, like Gecko) Chrome/90.0.4430.24 Safari/536.5",
	"Mozilla/5.0 (Windows NT 6.1; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/88.0.4324.96 Safari/537.36 OPR/74.0.3911.75",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.16; rv:85.0) Gecko/20100101 Firefox/85.0",
	"Mozilla/5.0 (Linux; Android 10; SM-A505F) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.66 Mobile Safari/537.36",
}

// Pool is a fixed set of User-Agents sampled uniformly at random.
// It is immutable after construction and safe for concurrent use.
type Pool struct {
	uas []string
}

// NewPool creates a new User-Agent pool. Blank and whitespace-only entries
// are dropped; if nothing is left it falls back to DefaultPool.
func NewPool(uas []string) *Pool {
	copied := nonBlank(uas)
	if len(copied) == 0 {
		copied = nonBlank(DefaultPool)
	}
	return &Pool{uas: copied}
}

func nonBlank(uas []string) []string {
	out := make([]string, 0, len(uas))
	for _, ua := range uas {
		if strings.TrimSpace(ua) != "" {
			out = append(out, ua)
		}
	}
	return out
}

// Random returns one User-Agent chosen uniformly at random, independently of
// earlier picks.
func (p *Pool) Random() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		// crypto/rand should not fail; math/rand keeps the choice uniform if it does
		return p.uas[mrand.IntN(len(p.uas))]
	}
	return p.uas[n.Int64()]
}

// Contains reports whether ua is a member of the pool.
func (p *Pool) Contains(ua string) bool {
	for _, u := range p.uas {
		if u == ua {
			return true
		}
	}
	return false
}

// Len returns the number of User-Agents in the pool.
func (p *Pool) Len() int {
	return len(p.uas)
}

// All returns a copy of all User-Agents currently in the pool.
func (p *Pool) All() []string {
	copied := make([]string, len(p.uas))
	copy(copied, p.uas)
	return copied
}
