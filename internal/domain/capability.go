package domain

// Capability is the authorization level an actor holds over a list.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilitySharedViewer
	CapabilityOwner
)

func (c Capability) String() string {
	switch c {
	case CapabilityOwner:
		return "owner"
	case CapabilitySharedViewer:
		return "shared_viewer"
	default:
		return "none"
	}
}

// CanEditItems reports whether the capability allows item mutations and reads.
func (c Capability) CanEditItems() bool {
	return c == CapabilityOwner || c == CapabilitySharedViewer
}

// CanManage reports whether the capability allows sharing and deleting the list.
func (c Capability) CanManage() bool {
	return c == CapabilityOwner
}
