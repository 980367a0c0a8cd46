package frontend

import (
	"fmt"
	"net/url"
	"time"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// sessionCookieName is the cookie under which the session id for a level
// is remembered, so a player can resume a board after closing the tab.
func sessionCookieName(levelID int) string {
	return fmt.Sprintf("gopeaks_session_%d", levelID)
}

func getCookie(name string) string {
	document := app.Window().Get("document")
	if !document.Truthy() {
		return ""
	}
	cookie := document.Get("cookie").String()
	// Parse the cookie string
	// A simple manual parser for exactly the key
	nameLen := len(name)
	for i := 0; i < len(cookie); i++ {
		if i+nameLen <= len(cookie) && cookie[i:i+nameLen] == name {
			// Found name, check if next char is '='
			if i+nameLen < len(cookie) && cookie[i+nameLen] == '=' {
				start := i + nameLen + 1
				end := start
				for end < len(cookie) && cookie[end] != ';' {
					end++
				}
				v, _ := url.QueryUnescape(cookie[start:end])
				return v
			}
		}
	}
	return ""
}

func setCookie(name, value string, days int) {
	document := app.Window().Get("document")
	if !document.Truthy() {
		return
	}
	expires := ""
	if days > 0 {
		t := time.Now().AddDate(0, 0, days)
		expires = "; expires=" + t.UTC().Format(time.RFC1123)
	}
	encodedValue := url.QueryEscape(value)
	document.Set("cookie", name+"="+encodedValue+expires+"; path=/")
}
