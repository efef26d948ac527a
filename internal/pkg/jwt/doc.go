// Package jwt verifies the HS512 bearer tokens the upstream gateway attaches
// to API calls. The caller is read from the user_id claim, falling back to sub.
package jwt
