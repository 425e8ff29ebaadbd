// Package platform sends desktop notifications through the host's
// notification service.
package platform

import "time"

// Options configures how a notification is displayed.
type Options struct {
	// AppName identifies the sender. Empty means "Passport Frame".
	AppName string
	// IconPath points to an image shown with the notification where supported.
	IconPath string
	// Critical asks the notification service to keep the message until it is
	// dismissed.
	Critical bool
	// Timeout is how long a non-critical notification stays visible. Zero
	// leaves it to the service.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return "Passport Frame"
	}
	return o.AppName
}
