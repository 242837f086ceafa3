package xbl

// EventState tags a bind progress event.
type EventState string

const (
	// StateDeviceCode carries the user code and verification URI the
	// caller must present to the end user.
	StateDeviceCode EventState = "DeviceCode"
	// StateSuccess carries the bound external profile. Terminal.
	StateSuccess EventState = "Success"
	// StateTimeout reports that the polling budget elapsed before the
	// user approved the code. Terminal.
	StateTimeout EventState = "Timeout"
	// StateInternalError reports any fatal failure in the chain.
	// Terminal.
	StateInternalError EventState = "InternalError"
)

// Event is one element of the ordered progress stream for a bind
// attempt: at most one DeviceCode event followed by exactly one
// terminal event. A cancelled session closes the stream with no
// terminal event.
type Event struct {
	State           EventState `json:"state"`
	Code            string     `json:"code,omitempty"`
	VerificationURI string     `json:"verificationUri,omitempty"`
	ID              string     `json:"id,omitempty"`
	Name            string     `json:"name,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.State != StateDeviceCode
}
