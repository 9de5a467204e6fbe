package backend

import (
	"encoding/json"
	"os"
)

// TokenEnv is the environment variable consulted for token-gated
// backends when no explicit token is given.
const TokenEnv = "IBMQX_TOKEN"

// Spec is the backend description a workflow step receives. Field order
// is fixed: the serialized form feeds the job fingerprint.
type Spec struct {
	ModuleName   string `json:"module_name"`
	FunctionName string `json:"function_name"`
	DeviceName   string `json:"device_name,omitempty"`
	Samples      int    `json:"n_samples,omitempty"`
	APIToken     string `json:"api_token,omitempty"`
}

// JSON renders the spec exactly as the engine's steps expect it. A spec
// without n_samples runs in analytic mode.
func (s *Spec) JSON() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// CreateSpecs resolves the named family and builds backend specs for the
// device/shots combination.
func CreateSpecs(family, device string, shots int, token string) (*Spec, error) {
	f, err := Lookup(family)
	if err != nil {
		return nil, err
	}
	return f.CreateSpecs(device, shots, token)
}

// CreateSpecs validates the device and shot count against the family's
// rules and builds the specs. shots == 0 selects analytic mode, which
// the family must support on the given device. Token-gated families take
// the explicit token first and fall back to the environment.
func (f *Family) CreateSpecs(device string, shots int, token string) (*Spec, error) {
	if f.DeviceRequired && device == "" {
		return nil, &UnknownBackendError{Name: f.Name, Reason: "a device name is required"}
	}
	if !f.DeviceRequired && device != "" {
		return nil, &UnknownBackendError{Name: f.Name, Device: device, Reason: "family does not take a device name"}
	}
	if shots < 0 {
		return nil, &InvalidShotsError{
			Family: f.Name,
			Device: device,
			Shots:  shots,
			Reason: "must be zero (analytic) or positive",
		}
	}
	if shots == 0 && !f.SupportsAnalytic(device) {
		return nil, &InvalidShotsError{
			Family: f.Name,
			Device: device,
			Shots:  shots,
			Reason: "analytic mode is not supported on this device",
		}
	}

	spec := &Spec{
		ModuleName:   f.Module,
		FunctionName: f.Function,
		DeviceName:   device,
		Samples:      shots,
	}

	if f.TokenRequired {
		if token == "" {
			token = os.Getenv(TokenEnv)
		}
		if token == "" {
			return nil, &MissingTokenError{Family: f.Name}
		}
		spec.APIToken = token
	}

	return spec, nil
}
