package client

import "net/url"

// LoginPath is the view an unauthenticated visitor is redirected to.
const LoginPath = "/login"

// GuardRoute decides whether navigation to a protected route may proceed.
// When no account snapshot is cached it returns the login view with the
// originally intended path preserved as a return target.
func (c *Client) GuardRoute(path string) (allowed bool, redirect string) {
	if c.Authenticated() {
		return true, ""
	}
	return false, LoginPath + "?redirect=" + url.QueryEscape(path)
}
