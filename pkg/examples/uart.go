package examples

import (
	"github.com/permaconf/permaconf-go/pkg/group"
)

// UART holds the serial port settings of a device's command channel.
type UART struct {
	Baud     uint32
	DataBits uint32
	StopBits uint32
	Parity   string
	FlowCtl  bool

	def *group.Def
}

// NewUART creates a serial settings group defaulting to 115200 8N1.
func NewUART() *UART {
	u := &UART{}
	u.def = group.NewDef("uart",
		group.Uint32("baud", &u.Baud, 115200),
		group.Uint32("data_bits", &u.DataBits, 8),
		group.Uint32("stop_bits", &u.StopBits, 1),
		group.String("parity", &u.Parity, "none"),
		group.Bool("flow_ctl", &u.FlowCtl, false),
	)
	u.def.SetDefault()
	return u
}

// Handler returns the group handler to register under the "uart" name.
func (u *UART) Handler() group.Handler {
	return u.def
}
