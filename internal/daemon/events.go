package daemon

import (
	"github.com/llehouerou/nudge/internal/notification"
)

// request is a protocol operation queued onto the event loop. Each variant
// carries its own reply channel; the caller blocks until the loop answers.
type request interface {
	isRequest()
}

type admitReq struct {
	n     *notification.Notification
	reply chan admitReply
}

type admitReply struct {
	id  uint32
	err error
}

type closeReq struct {
	id     uint32
	reason notification.CloseReason
	reply  chan closeReply
}

type closeReply struct {
	found bool
}

type closeAllReq struct {
	reply chan int
}

type closeShownReq struct {
	reply chan textReply
}

type showLastReq struct {
	reply chan textReply
}

type textReply struct {
	text string
}

func (*admitReq) isRequest()      {}
func (*closeReq) isRequest()      {}
func (*closeAllReq) isRequest()   {}
func (*closeShownReq) isRequest() {}
func (*showLastReq) isRequest()   {}
