package sim

// A Msg is a piece of information that travels through a connection.
type Msg interface {
	Meta() *MsgMeta
	Clone() Msg
}

// MsgMeta is the header shared by all messages. IDs come from the ID
// generator, so they are unique within a simulation.
type MsgMeta struct {
	ID       string
	Src, Dst string
}

// A Rsp answers the request whose ID it carries.
type Rsp interface {
	Msg
	GetRspTo() string
}
