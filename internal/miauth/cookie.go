package miauth

import (
	"fmt"
	"net/http"
)

// CookieString derives the request cookie header from the session
// artifacts. Pure and idempotent: the same state always yields the same
// cookie.
func CookieString(deviceID, serviceToken, userID string) string {
	return fmt.Sprintf("deviceId=%s; serviceToken=%s; userId=%s",
		deviceID, serviceToken, userID)
}

// Cookies returns the same derivation as individual cookies, for attaching
// to an *http.Request.
func Cookies(deviceID, serviceToken, userID string) []*http.Cookie {
	return []*http.Cookie{
		{Name: "deviceId", Value: deviceID},
		{Name: "serviceToken", Value: serviceToken},
		{Name: "userId", Value: userID},
	}
}
