package domain

import "strings"

type FormFactor string

const (
	Phone   FormFactor = "phone"
	Desktop FormFactor = "desktop"
)

// DeviceClass is what we can infer about a client from its User-Agent.
type DeviceClass struct {
	FormFactor FormFactor
	OS         string
}

// uaPatterns is checked in order: phone markers must win over desktop
// markers because mobile agents routinely carry both ("Linux; Android").
var uaPatterns = []struct {
	marker string
	class  DeviceClass
}{
	{"android", DeviceClass{Phone, "Android"}},
	{"iphone", DeviceClass{Phone, "iOS"}},
	{"ipad", DeviceClass{Phone, "iOS"}},
	{"ipod", DeviceClass{Phone, "iOS"}},
	{"windows", DeviceClass{Desktop, "Windows"}},
	{"macintosh", DeviceClass{Desktop, "macOS"}},
	{"mac os", DeviceClass{Desktop, "macOS"}},
	{"linux", DeviceClass{Desktop, "Linux"}},
}

// ResolveDevice classifies a client's advertised User-Agent string.
// Pure and deterministic; unknown agents fall back to a desktop.
func ResolveDevice(userAgent string) DeviceClass {
	ua := strings.ToLower(userAgent)
	for _, p := range uaPatterns {
		if strings.Contains(ua, p.marker) {
			return p.class
		}
	}
	return DeviceClass{Desktop, "Unknown"}
}

// DefaultName is used when a client never supplies a device name.
func (c DeviceClass) DefaultName() string {
	if c.FormFactor == Phone {
		return c.OS + " Phone"
	}
	return c.OS + " Desktop"
}
