package sim

import (
	"errors"
	"fmt"
	"log"
)

// ErrQueueFull is returned when a message is sent into a connection queue that
// has no free slot.
var ErrQueueFull = errors.New("queue full")

// HookPosConnReqSend marks when a request is enqueued to a connection.
var HookPosConnReqSend = &HookPos{Name: "Conn Req Send"}

// HookPosConnReqRetrieve marks when a request is taken out of a connection.
var HookPosConnReqRetrieve = &HookPos{Name: "Conn Req Retrieve"}

// HookPosConnRspSend marks when a response is enqueued to a connection.
var HookPosConnRspSend = &HookPos{Name: "Conn Rsp Send"}

// HookPosConnRspRetrieve marks when a response is taken out of a connection.
var HookPosConnRspRetrieve = &HookPos{Name: "Conn Rsp Retrieve"}

// ConnID identifies a connection within the component that created it.
type ConnID int

// SendError marks a failed send.
type SendError struct {
	Conn ConnID
	Side string
}

// NewSendError creates a SendError
func NewSendError(conn ConnID, side string) *SendError {
	return &SendError{Conn: conn, Side: side}
}

func (e *SendError) Error() string {
	return fmt.Sprintf("connection %d %s: %s", e.Conn, e.Side, ErrQueueFull)
}

// Unwrap allows errors.Is(err, ErrQueueFull).
func (e *SendError) Unwrap() error {
	return ErrQueueFull
}

// A Connection links a requester with a component. Requests flow from the
// requester to the component and responses flow back. Both directions are
// bounded FIFO queues.
type Connection struct {
	HookableBase

	id     ConnID
	name   string
	reqBuf Buffer
	rspBuf Buffer
}

// NewConnection creates a connection whose two queues can each hold depth
// messages.
func NewConnection(name string, id ConnID, depth int) *Connection {
	NameMustBeValid(name)

	if depth <= 0 {
		log.Panicf("connection %s must have a positive depth", name)
	}

	return &Connection{
		id:     id,
		name:   name,
		reqBuf: NewBuffer(name+".ReqBuf", depth),
		rspBuf: NewBuffer(name+".RspBuf", depth),
	}
}

// Name returns the name of the connection.
func (c *Connection) Name() string {
	return c.name
}

// ID returns the connection id assigned at setup time.
func (c *Connection) ID() ConnID {
	return c.id
}

// ReqBuf returns the request queue.
func (c *Connection) ReqBuf() Buffer {
	return c.reqBuf
}

// RspBuf returns the response queue.
func (c *Connection) RspBuf() Buffer {
	return c.rspBuf
}

// CanSendReq checks if a request can be enqueued without error.
func (c *Connection) CanSendReq() bool {
	return c.reqBuf.CanPush()
}

// SendReq enqueues a request. The queue is left untouched if it is full.
func (c *Connection) SendReq(msg Msg) error {
	return c.send(c.reqBuf, msg, "req", HookPosConnReqSend)
}

// PeekReq returns the oldest request without removing it.
func (c *Connection) PeekReq() Msg {
	return peekMsg(c.reqBuf)
}

// RetrieveReq removes and returns the oldest request.
func (c *Connection) RetrieveReq() Msg {
	return c.retrieve(c.reqBuf, HookPosConnReqRetrieve)
}

// CanSendRsp checks if a response can be enqueued without error.
func (c *Connection) CanSendRsp() bool {
	return c.rspBuf.CanPush()
}

// SendRsp enqueues a response. The queue is left untouched if it is full.
func (c *Connection) SendRsp(msg Msg) error {
	return c.send(c.rspBuf, msg, "rsp", HookPosConnRspSend)
}

// PeekRsp returns the oldest response without removing it.
func (c *Connection) PeekRsp() Msg {
	return peekMsg(c.rspBuf)
}

// RetrieveRsp removes and returns the oldest response.
func (c *Connection) RetrieveRsp() Msg {
	return c.retrieve(c.rspBuf, HookPosConnRspRetrieve)
}

func (c *Connection) send(
	buf Buffer,
	msg Msg,
	side string,
	pos *HookPos,
) error {
	if msg == nil {
		log.Panic("cannot send nil message")
	}

	if !buf.CanPush() {
		return NewSendError(c.id, side)
	}

	buf.Push(msg)

	if c.NumHooks() > 0 {
		c.InvokeHook(HookCtx{
			Domain: c,
			Pos:    pos,
			Item:   msg,
		})
	}

	return nil
}

func (c *Connection) retrieve(buf Buffer, pos *HookPos) Msg {
	item := buf.Pop()
	if item == nil {
		return nil
	}

	msg := item.(Msg)

	if c.NumHooks() > 0 {
		c.InvokeHook(HookCtx{
			Domain: c,
			Pos:    pos,
			Item:   msg,
		})
	}

	return msg
}

func peekMsg(buf Buffer) Msg {
	item := buf.Peek()
	if item == nil {
		return nil
	}

	return item.(Msg)
}

// Connectable is a component that requesters can connect to.
type Connectable interface {
	Named

	Connect() ConnID
	Connection(id ConnID) *Connection
}

// ConnectionTable keeps the connections created by a component, in the order
// they are created.
type ConnectionTable struct {
	owner string
	depth int
	conns []*Connection
}

// NewConnectionTable creates a connection table. Every connection created by
// the table has queues that hold depth messages.
func NewConnectionTable(owner string, depth int) *ConnectionTable {
	if depth <= 0 {
		log.Panicf("component %s must have a positive queue depth", owner)
	}

	return &ConnectionTable{
		owner: owner,
		depth: depth,
	}
}

// Connect creates a new connection and returns its id. IDs start from 0 and
// increase by 1 for every call.
func (t *ConnectionTable) Connect() ConnID {
	id := ConnID(len(t.conns))
	conn := NewConnection(
		BuildNameWithIndex(t.owner, "Conn", int(id)), id, t.depth)
	t.conns = append(t.conns, conn)

	return id
}

// Connection returns the connection with the given id. It panics if the id
// was never returned by Connect.
func (t *ConnectionTable) Connection(id ConnID) *Connection {
	if id < 0 || int(id) >= len(t.conns) {
		log.Panicf("%s has no connection %d", t.owner, id)
	}

	return t.conns[id]
}

// Connections returns all the connections in ascending id order.
func (t *ConnectionTable) Connections() []*Connection {
	return t.conns
}

// NumConnections returns the number of connections created.
func (t *ConnectionTable) NumConnections() int {
	return len(t.conns)
}
