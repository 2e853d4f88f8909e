package wifi

import "fmt"

// Credentials are the network name and passphrase received from an operator.
type Credentials struct {
	SSID     string
	Password string
}

// Complete reports whether both fields are set. Only complete credentials
// are ever handed to the network layer.
func (c Credentials) Complete() bool {
	return c.SSID != "" && c.Password != ""
}

// String returns a printable form that never includes the password.
func (c Credentials) String() string {
	return fmt.Sprintf("ssid=%q password=[%d bytes]", c.SSID, len(c.Password))
}
