package examples

import (
	"github.com/permaconf/permaconf-go/pkg/group"
)

// Network holds the network interface settings of a device: its identity
// on the wire and how it obtains an address.
type Network struct {
	Hostname string
	DHCP     bool
	Address  string
	Netmask  string
	Gateway  string
	Port     uint32

	def *group.Def
}

// NewNetwork creates a network settings group with conventional defaults.
func NewNetwork() *Network {
	n := &Network{}
	n.def = group.NewDef("network",
		group.String("hostname", &n.Hostname, "device"),
		group.Bool("dhcp", &n.DHCP, true),
		group.String("address", &n.Address, "0.0.0.0"),
		group.String("netmask", &n.Netmask, "255.255.255.0"),
		group.String("gateway", &n.Gateway, "0.0.0.0"),
		group.Uint32("port", &n.Port, 7776),
	)
	n.def.SetDefault()
	return n
}

// Handler returns the group handler to register under the "network" name.
func (n *Network) Handler() group.Handler {
	return n.def
}
