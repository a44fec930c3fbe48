package ir

import (
	"fmt"
	"strings"
)

// Address locates a node in the network/domain/device/vm hierarchy.
// Unset levels are empty. The most specific set level is the target.
type Address struct {
	Network string `json:"network,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Device  string `json:"device,omitempty"`
	VM      string `json:"vm,omitempty"`
}

// IsZero reports whether no level is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String renders "network/domain/device/vm", keeping empty levels so the
// form round-trips through ParseAddress.
func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	return strings.Join([]string{a.Network, a.Domain, a.Device, a.VM}, "/")
}

// Target is the most specific level that is set.
func (a Address) Target() string {
	for _, s := range []string{a.VM, a.Device, a.Domain, a.Network} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ParseAddress parses up to four slash-separated levels.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	parts := strings.Split(s, "/")
	if len(parts) > 4 {
		return Address{}, fmt.Errorf("address %q has %d levels, at most 4 allowed", s, len(parts))
	}
	for len(parts) < 4 {
		parts = append(parts, "")
	}
	a := Address{Network: parts[0], Domain: parts[1], Device: parts[2], VM: parts[3]}
	if a.IsZero() {
		return Address{}, fmt.Errorf("address %q sets no level", s)
	}
	return a, nil
}

// Value encodes the address as an Object with only the set levels.
func (a Address) Value() Object {
	obj := Object{}
	if a.Network != "" {
		obj["network"] = String(a.Network)
	}
	if a.Domain != "" {
		obj["domain"] = String(a.Domain)
	}
	if a.Device != "" {
		obj["device"] = String(a.Device)
	}
	if a.VM != "" {
		obj["vm"] = String(a.VM)
	}
	return obj
}

// AddressFromValue is the inverse of Address.Value.
func AddressFromValue(v Value) (Address, error) {
	obj, ok := v.(Object)
	if !ok {
		return Address{}, fmt.Errorf("address: expected object, got %s", TypeTag(v))
	}
	var a Address
	for k, field := range obj {
		s, ok := field.(String)
		if !ok {
			return Address{}, fmt.Errorf("address.%s: expected string, got %s", k, TypeTag(field))
		}
		switch k {
		case "network":
			a.Network = string(s)
		case "domain":
			a.Domain = string(s)
		case "device":
			a.Device = string(s)
		case "vm":
			a.VM = string(s)
		default:
			return Address{}, fmt.Errorf("address: unknown level %q", k)
		}
	}
	return a, nil
}
