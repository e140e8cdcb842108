package adapter

import (
	"context"
	"errors"
	"time"
)

// fetchFunc lets each test script the portal's responses.
type fetchFunc struct {
	get  func(url string, headers map[string]string) ([]byte, error)
	post func(url string, form, headers map[string]string) ([]byte, error)
}

func (f fetchFunc) Get(_ context.Context, url string, headers map[string]string) ([]byte, error) {
	if f.get == nil {
		return nil, errors.New("unexpected GET " + url)
	}
	return f.get(url, headers)
}

func (f fetchFunc) PostForm(_ context.Context, url string, form, headers map[string]string) ([]byte, error) {
	if f.post == nil {
		return nil, errors.New("unexpected POST " + url)
	}
	return f.post(url, form, headers)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// 2025-01-14 AD is BS 2081-09-30.
var testClock = fixedClock{now: time.Date(2025, time.January, 14, 10, 0, 0, 0, time.UTC)}

const wafBanner = `<html><body>The requested URL was rejected. Please consult with your administrator.<br>Your support ID is: 1234567890</body></html>`
