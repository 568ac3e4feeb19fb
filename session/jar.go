package session

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

// refreshJar holds the refresh credential cookie. It can be reset on logout and its
// cookies for the API host can be saved to and restored from a token scope.
type refreshJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

var _ http.CookieJar = (*refreshJar)(nil)

func newRefreshJar() (*refreshJar, error) {
	jar, err := newCookieJar()
	if err != nil {
		return nil, err
	}
	return &refreshJar{jar: jar}, nil
}

func newCookieJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar, errors.Wrap(err, "[newCookieJar] failed to create cookie jar")
}

func (j *refreshJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.jar.SetCookies(u, cookies)
}

func (j *refreshJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

func (j *refreshJar) Reset() {
	jar, err := newCookieJar()
	if err != nil {
		return
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Export serialises the cookies the jar would send to u.
func (j *refreshJar) Export(u *url.URL) (string, error) {
	cookies := j.Cookies(u)
	saved := make([]savedCookie, 0, len(cookies))
	for _, c := range cookies {
		saved = append(saved, savedCookie{Name: c.Name, Value: c.Value})
	}
	b, err := json.Marshal(saved)
	if err != nil {
		return "", errors.Wrap(err, "[refreshJar.Export] marshal cookies")
	}
	return string(b), nil
}

// Import replaces the jar contents with cookies previously returned by Export.
func (j *refreshJar) Import(u *url.URL, data string) error {
	var saved []savedCookie
	if err := json.Unmarshal([]byte(data), &saved); err != nil {
		return errors.Wrap(err, "[refreshJar.Import] unmarshal cookies")
	}
	j.Reset()
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, s := range saved {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	j.SetCookies(u, cookies)
	return nil
}
