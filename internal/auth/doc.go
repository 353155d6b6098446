// Package auth issues and verifies EvalIA session tokens and password hashes.
//
// Sessions are HS256 JWTs carrying the user ID as subject and the role as a
// claim. Tokens stay stateless except for logout: a revoked token ID is kept
// in a TTL cache until the token would have expired anyway.
package auth
