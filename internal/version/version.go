// ABOUTME: Version constants for the viewer and test server
// ABOUTME: Reported by the CLIs and the server's HTTP responses
package version

// Version is overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.1.0"

const (
	Product      = "mjpeg-go"
	Manufacturer = "harperreed"
)

// String returns the product and version as used in User-Agent and Server headers
func String() string {
	return Product + "/" + Version
}
