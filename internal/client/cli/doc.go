// Package cli implements the snipbin command-line client on top of cobra.
//
// Commands:
//
//	snipbin login [email|name]         sign in and remember the credential
//	snipbin logout                     forget the stored credential
//	snipbin posts list [--all]         list posts, one page or every page
//	snipbin posts get <id>             print a post's content
//	snipbin posts create [--file f]    create a post from a file or stdin
//
// The credential is kept in a local SQLite session database (see
// client.InitDatabase), so later commands run as the logged-in account.
package cli
