// Package drivers holds the connection-detail shape shared by every
// store driver (postgres, sqlite3).
package drivers

// ConnectionDetails carries the parameters needed to open a
// connection. For sqlite3 only Database (the file path) is used.
type ConnectionDetails struct {
	Host     string
	Port     uint16
	Username string
	Password string
	Database string
	SSLMode  string
}
