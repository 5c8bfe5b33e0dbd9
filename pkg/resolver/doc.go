// Package resolver reads the follower count of an account from its profile
// page, trying the meta description before the page's embedded data.
package resolver
