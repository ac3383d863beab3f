// Package auth provides authentication and authorization services.
//
// It issues and verifies JWT access and refresh tokens, keeps the
// revocation list for logged-out tokens, and answers permission and
// role questions for the HTTP guards.
package auth
