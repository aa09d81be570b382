package capture

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// ErrCookies indicates an unreadable cookie file.
var ErrCookies = errors.New("failed to load cookies")

// maxCookieFile bounds the cookie file size.
const maxCookieFile = 1 << 20

// Cookie is a session cookie as exported by the browser's devtools.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"` // seconds since epoch, <= 0 for session
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"` // Strict, Lax or None
}

// storedCookies is the file layout written by cookie exporters that keep
// capture metadata next to the cookies.
type storedCookies struct {
	Cookies    []Cookie  `json:"cookies"`
	CapturedAt time.Time `json:"captured_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// LoadCookies reads a JSON cookie file: either a bare array of cookies or an
// object with a "cookies" array. Cookies without a name are dropped, and so
// are cookies that expired before now.
func LoadCookies(path string, now time.Time) ([]Cookie, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- cookie path is user-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCookies, err)
	}
	return ParseCookies(data, now)
}

// ParseCookies decodes a cookie file's content. See LoadCookies.
func ParseCookies(data []byte, now time.Time) ([]Cookie, error) {
	if len(data) > maxCookieFile {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrCookies, maxCookieFile)
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty file", ErrCookies)
	}

	var cookies []Cookie
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &cookies); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCookies, err)
		}
	} else {
		var stored storedCookies
		if err := json.Unmarshal([]byte(trimmed), &stored); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCookies, err)
		}
		cookies = stored.Cookies
	}

	kept := cookies[:0]
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		if c.Expires > 0 && time.Unix(int64(c.Expires), 0).Before(now) {
			continue
		}
		kept = append(kept, c)
	}
	return kept, nil
}

// cookieParams converts cookies for the devtools protocol. Cookies without
// a domain are scoped to target.
func cookieParams(cookies []Cookie, target string) []*proto.NetworkCookieParam {
	if len(cookies) == 0 {
		return nil
	}
	host := ""
	if u, err := url.Parse(target); err == nil {
		host = u.Hostname()
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if p.Domain == "" {
			p.Domain = host
		}
		if p.Path == "" {
			p.Path = "/"
		}
		if c.Expires > 0 {
			p.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		switch strings.ToLower(c.SameSite) {
		case "strict":
			p.SameSite = proto.NetworkCookieSameSiteStrict
		case "lax":
			p.SameSite = proto.NetworkCookieSameSiteLax
		case "none":
			p.SameSite = proto.NetworkCookieSameSiteNone
		}
		params = append(params, p)
	}
	return params
}
