// Package mem defines the packets exchanged between the components of a
// memory hierarchy and a sparse backing store.
package mem

import (
	"github.com/sarchlab/cachesim/sim"
)

// AccessReq abstracts read and write requests that are sent to the
// cache modules or memory controllers.
type AccessReq interface {
	sim.Msg
	GetAddress() uint64
}

// A AccessRsp is a respond in the memory system.
type AccessRsp interface {
	sim.Msg
	sim.Rsp
	IsHit() bool
}

// A ReadReq is a request sent to a memory component to fetch data
type ReadReq struct {
	sim.MsgMeta

	Address uint64
}

// Meta returns the message meta.
func (r *ReadReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *ReadReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetAddress returns the address that the request is accessing
func (r *ReadReq) GetAddress() uint64 {
	return r.Address
}

// ReadReqBuilder can build read requests.
type ReadReqBuilder struct {
	src, dst string
	address  uint64
}

// WithSrc sets the source of the request to build.
func (b ReadReqBuilder) WithSrc(src string) ReadReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b ReadReqBuilder) WithDst(dst string) ReadReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the address of the request to build.
func (b ReadReqBuilder) WithAddress(address uint64) ReadReqBuilder {
	b.address = address
	return b
}

// Build creates a new ReadReq
func (b ReadReqBuilder) Build() *ReadReq {
	r := &ReadReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.Address = b.address

	return r
}

// A WriteReq is a request sent to a memory component to write data
type WriteReq struct {
	sim.MsgMeta

	Address uint64
	Value   uint64
}

// Meta returns the meta data attached to a request.
func (r *WriteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the request with a new ID.
func (r *WriteReq) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetAddress returns the address that the request is accessing
func (r *WriteReq) GetAddress() uint64 {
	return r.Address
}

// WriteReqBuilder can build write requests.
type WriteReqBuilder struct {
	src, dst string
	address  uint64
	value    uint64
}

// WithSrc sets the source of the request to build.
func (b WriteReqBuilder) WithSrc(src string) WriteReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b WriteReqBuilder) WithDst(dst string) WriteReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the address of the request to build.
func (b WriteReqBuilder) WithAddress(address uint64) WriteReqBuilder {
	b.address = address
	return b
}

// WithValue sets the value to write.
func (b WriteReqBuilder) WithValue(value uint64) WriteReqBuilder {
	b.value = value
	return b
}

// Build creates a new WriteReq
func (b WriteReqBuilder) Build() *WriteReq {
	r := &WriteReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.Address = b.address
	r.Value = b.value

	return r
}

// A DataReadyRsp is the respond sent from the lower module to the higher
// module that carries the data loaded.
type DataReadyRsp struct {
	sim.MsgMeta

	RespondTo string // The ID of the request it replies
	Value     uint64
	Hit       bool
}

// Meta returns the meta data attached to each message.
func (r *DataReadyRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the response with a new ID.
func (r *DataReadyRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetRspTo returns the ID if the request that the respond is responding to.
func (r *DataReadyRsp) GetRspTo() string {
	return r.RespondTo
}

// IsHit tells whether the request was served without going to a lower level.
func (r *DataReadyRsp) IsHit() bool {
	return r.Hit
}

// DataReadyRspBuilder can build data ready responds.
type DataReadyRspBuilder struct {
	src, dst string
	rspTo    string
	value    uint64
	hit      bool
}

// WithSrc sets the source of the request to build.
func (b DataReadyRspBuilder) WithSrc(src string) DataReadyRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b DataReadyRspBuilder) WithDst(dst string) DataReadyRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets ID of the request that the respond to build is replying to.
func (b DataReadyRspBuilder) WithRspTo(id string) DataReadyRspBuilder {
	b.rspTo = id
	return b
}

// WithValue sets the data of the respond to build.
func (b DataReadyRspBuilder) WithValue(value uint64) DataReadyRspBuilder {
	b.value = value
	return b
}

// WithHit marks the respond as a hit.
func (b DataReadyRspBuilder) WithHit(hit bool) DataReadyRspBuilder {
	b.hit = hit
	return b
}

// Build creates a new DataReadyRsp
func (b DataReadyRspBuilder) Build() *DataReadyRsp {
	r := &DataReadyRsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.RespondTo = b.rspTo
	r.Value = b.value
	r.Hit = b.hit

	return r
}

// A WriteDoneRsp is a respond sent from the lower module to the higher module
// to mark a previous requests is completed successfully.
type WriteDoneRsp struct {
	sim.MsgMeta

	RespondTo string
	Hit       bool
}

// Meta returns the meta data associated with the message.
func (r *WriteDoneRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns a copy of the response with a new ID.
func (r *WriteDoneRsp) Clone() sim.Msg {
	c := *r
	c.ID = sim.GetIDGenerator().Generate()

	return &c
}

// GetRspTo returns the ID of the request that the respond is responding to.
func (r *WriteDoneRsp) GetRspTo() string {
	return r.RespondTo
}

// IsHit tells whether the written line was already present.
func (r *WriteDoneRsp) IsHit() bool {
	return r.Hit
}

// WriteDoneRspBuilder can build write done responds.
type WriteDoneRspBuilder struct {
	src, dst string
	rspTo    string
	hit      bool
}

// WithSrc sets the source of the request to build.
func (b WriteDoneRspBuilder) WithSrc(src string) WriteDoneRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b WriteDoneRspBuilder) WithDst(dst string) WriteDoneRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets ID of the request that the respond to build is replying to.
func (b WriteDoneRspBuilder) WithRspTo(id string) WriteDoneRspBuilder {
	b.rspTo = id
	return b
}

// WithHit marks the respond as a hit.
func (b WriteDoneRspBuilder) WithHit(hit bool) WriteDoneRspBuilder {
	b.hit = hit
	return b
}

// Build creates a new WriteDoneRsp
func (b WriteDoneRspBuilder) Build() *WriteDoneRsp {
	r := &WriteDoneRsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.RespondTo = b.rspTo
	r.Hit = b.hit

	return r
}
