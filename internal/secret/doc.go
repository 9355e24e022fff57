// Package secret persists refresh tokens in the operating system's
// credential store. The rest of the program talks to the Store interface;
// the keyring implementation is the default, and a no-op implementation
// exists for tests and for hosts without a usable credential service.
package secret
