package sim

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

type sampleMsg struct {
	MsgMeta
}

func (m *sampleMsg) Meta() *MsgMeta {
	return &m.MsgMeta
}

func (m *sampleMsg) Clone() Msg {
	c := *m
	return &c
}

func newSampleMsg(id string) *sampleMsg {
	return &sampleMsg{MsgMeta: MsgMeta{ID: id}}
}

var _ = Describe("Connection", func() {
	var (
		conn *Connection
	)

	BeforeEach(func() {
		conn = NewConnection("Comp.Conn[0]", 0, 2)
	})

	It("should panic on non-positive depth", func() {
		Expect(func() { NewConnection("Conn", 0, 0) }).To(Panic())
	})

	It("should keep requests in order", func() {
		Expect(conn.SendReq(newSampleMsg("1"))).To(Succeed())
		Expect(conn.SendReq(newSampleMsg("2"))).To(Succeed())

		Expect(conn.PeekReq().Meta().ID).To(Equal("1"))
		Expect(conn.RetrieveReq().Meta().ID).To(Equal("1"))
		Expect(conn.RetrieveReq().Meta().ID).To(Equal("2"))
		Expect(conn.RetrieveReq()).To(BeNil())
		Expect(conn.PeekReq()).To(BeNil())
	})

	It("should reject requests when full", func() {
		Expect(conn.SendReq(newSampleMsg("1"))).To(Succeed())
		Expect(conn.SendReq(newSampleMsg("2"))).To(Succeed())
		Expect(conn.CanSendReq()).To(BeFalse())

		err := conn.SendReq(newSampleMsg("3"))

		Expect(errors.Is(err, ErrQueueFull)).To(BeTrue())
		var sendErr *SendError
		Expect(errors.As(err, &sendErr)).To(BeTrue())
		Expect(sendErr.Side).To(Equal("req"))
		Expect(conn.ReqBuf().Size()).To(Equal(2))
		Expect(conn.PeekReq().Meta().ID).To(Equal("1"))
	})

	It("should reject responses when full", func() {
		Expect(conn.SendRsp(newSampleMsg("1"))).To(Succeed())
		Expect(conn.SendRsp(newSampleMsg("2"))).To(Succeed())
		Expect(conn.CanSendRsp()).To(BeFalse())

		err := conn.SendRsp(newSampleMsg("3"))

		Expect(errors.Is(err, ErrQueueFull)).To(BeTrue())
		Expect(conn.RetrieveRsp().Meta().ID).To(Equal("1"))
		Expect(conn.PeekRsp().Meta().ID).To(Equal("2"))
		Expect(conn.CanSendRsp()).To(BeTrue())
	})

	It("should invoke hooks on send and retrieve", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		hook := NewMockHook(mockCtrl)
		conn.AcceptHook(hook)
		msg := newSampleMsg("1")

		gomock.InOrder(
			hook.EXPECT().Func(HookCtx{
				Domain: conn, Pos: HookPosConnReqSend, Item: msg,
			}),
			hook.EXPECT().Func(HookCtx{
				Domain: conn, Pos: HookPosConnReqRetrieve, Item: msg,
			}),
		)

		Expect(conn.SendReq(msg)).To(Succeed())
		conn.RetrieveReq()
	})
})

var _ = Describe("ConnectionTable", func() {
	var (
		table *ConnectionTable
	)

	BeforeEach(func() {
		table = NewConnectionTable("Cache", 4)
	})

	It("should assign ascending ids", func() {
		Expect(table.Connect()).To(Equal(ConnID(0)))
		Expect(table.Connect()).To(Equal(ConnID(1)))
		Expect(table.Connect()).To(Equal(ConnID(2)))

		conns := table.Connections()
		Expect(conns).To(HaveLen(3))
		for i, c := range conns {
			Expect(c.ID()).To(Equal(ConnID(i)))
		}

		Expect(table.Connection(1).Name()).To(Equal("Cache.Conn[1]"))
		Expect(table.NumConnections()).To(Equal(3))
	})

	It("should use the table depth for every connection", func() {
		id := table.Connect()
		Expect(table.Connection(id).ReqBuf().Capacity()).To(Equal(4))
		Expect(table.Connection(id).RspBuf().Capacity()).To(Equal(4))
	})

	It("should panic on unknown id", func() {
		Expect(func() { table.Connection(0) }).To(Panic())
	})
})
