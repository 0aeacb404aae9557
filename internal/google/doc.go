// Package google manages per-user OAuth credentials for the Calendar and
// Tasks APIs and maps their failures onto toolerr kinds.
//
// Tokens live in a TokenStore, one per user id. ClientFactory turns a stored
// token into an authenticated *http.Client whose refreshes are written back
// to the store. A missing or revoked token surfaces as KindAuthExpired so the
// model can tell the user to reconnect their Google account.
package google
