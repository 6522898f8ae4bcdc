// Package cli provides the usermgr command-line client.
//
// It wires configuration, the local session database, the REST client, the
// session controller and the route guard, and exposes them as cobra
// commands. Every command backed by a page of the web client (profile,
// admin dashboard, statistics) is navigated to first, so the same access
// rules apply: signed-out users are sent to the login page, non-admins to
// the home page.
//
// Key commands:
//   - login / register / logout / whoami
//   - profile update, passwd, picture upload|delete
//   - users list|show|activate|deactivate, stats, dashboard (admins)
//   - password check, route
//   - shell: an interactive loop over the same commands
//
// See Execute for the entry point and runREPL for the shell.
package cli
