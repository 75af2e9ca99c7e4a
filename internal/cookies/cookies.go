package cookies

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/qzarchive/qzarchive/pkg/config"
)

// ErrNotAuthenticated is returned when a jar lacks the session cookies
var ErrNotAuthenticated = errors.New("cookie jar lacks uin or p_skey")

// Session cookie names
const (
	UINCookie    = "uin"
	SecretCookie = "p_skey"
)

// Jar maps cookie names to values for one logged-in session
type Jar map[string]string

// UIN returns the numeric account id, "o0012345" becoming "12345"
func (j Jar) UIN() string {
	uin := strings.TrimLeft(j[UINCookie], "o")
	uin = strings.TrimLeft(uin, "0")
	return uin
}

// Secret returns the session key the request token is derived from
func (j Jar) Secret() string {
	return j[SecretCookie]
}

// Validate checks that the jar can sign requests
func (j Jar) Validate() error {
	if j.UIN() == "" || j.Secret() == "" {
		return ErrNotAuthenticated
	}
	return nil
}

// Header serializes the jar as a Cookie header value, sorted by name
func (j Jar) Header() string {
	names := make([]string, 0, len(j))
	for name := range j {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+j[name])
	}
	return strings.Join(parts, "; ")
}

// ParseHeader reads a Cookie header value such as "uin=o123; p_skey=abc".
// A pair without "=" maps to an empty value.
func ParseHeader(header string) Jar {
	jar := make(Jar)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		jar[name] = value
	}
	return jar
}

// ParseCurl pulls the Cookie header out of a command copied from the
// browser's network panel ("Copy as cURL").
func ParseCurl(command string) (Jar, error) {
	start := strings.Index(command, "Cookie: ")
	if start < 0 {
		start = strings.Index(command, "cookie: ")
	}
	if start < 0 {
		return nil, fmt.Errorf("no cookie header in command")
	}
	start += len("Cookie: ")

	rest := command[start:]
	if end := strings.IndexAny(rest, "'\""); end >= 0 {
		rest = rest[:end]
	}
	return ParseHeader(rest), nil
}

// ParseNetscape reads a Netscape/Mozilla cookies.txt file. Expiry is
// ignored; session cookies are kept.
func ParseNetscape(r io.Reader) (Jar, error) {
	jar := make(Jar)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("malformed cookie line: %q", line)
		}
		jar[fields[5]] = fields[6]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cookie file: %w", err)
	}
	return jar, nil
}

// Load builds a jar from the first configured source: header, curl file,
// then cookie file.
func Load(cfg *config.CookiesConfig) (Jar, error) {
	var (
		jar Jar
		err error
	)
	switch {
	case cfg.Header != "":
		jar = ParseHeader(cfg.Header)
	case cfg.CurlFile != "":
		data, rerr := os.ReadFile(cfg.CurlFile)
		if rerr != nil {
			return nil, fmt.Errorf("failed to read curl file: %w", rerr)
		}
		jar, err = ParseCurl(string(data))
	case cfg.CookieFile != "":
		f, oerr := os.Open(cfg.CookieFile)
		if oerr != nil {
			return nil, fmt.Errorf("failed to open cookie file: %w", oerr)
		}
		defer f.Close()
		jar, err = ParseNetscape(f)
	default:
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	if err := jar.Validate(); err != nil {
		return nil, err
	}
	return jar, nil
}
