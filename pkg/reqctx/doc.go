// Package reqctx carries request-scoped metadata through context.Context.
//
// HTTP middleware stores a RequestMeta for every request:
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{
//	    RequestID:   "abc-123",
//	    ClientIP:    "192.168.1.1",
//	    RequestedAt: time.Now(),
//	})
//
// Services read it back, usually through Logger so that log lines carry the
// request id:
//
//	reqctx.Logger(ctx).Info("schedule saved", "professional_id", pid)
//
// Context keys are unexported; access goes through the typed helpers only.
package reqctx
