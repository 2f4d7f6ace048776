package viewmodel

import (
	"go.uber.org/zap"

	"vozhatapp/internal/service"
)

// Notice is the one-shot message of a screen. It is set when an operation
// fails and cleared once the screen reports it as shown.
type Notice struct {
	Message string
}

// report shows err's user message. Unexpected failures and timeouts are logged as warnings.
func (n *Notice) report(log *zap.Logger, err error) {
	if err == nil {
		return
	}
	switch service.KindOf(err) {
	case service.KindUnexpected, service.KindTimeout:
		log.Warn("screen operation failed", zap.Error(err))
	default:
		log.Debug("screen operation rejected", zap.Error(err))
	}
	n.Message = service.MessageOf(err)
}

func (n *Notice) clear() {
	n.Message = ""
}
