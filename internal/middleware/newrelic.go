package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// newRelicTxn reports each request as a New Relic web transaction.
type newRelicTxn struct {
	app *newrelic.Application
}

// statusWriter returns a writer that only records the response status on txn.
var statusWriter = func(txn *newrelic.Transaction) http.ResponseWriter {
	return txn.SetWebResponse(nil)
}

func (*newRelicTxn) Name() string { return "newrelic" }

func (s *newRelicTxn) Before(c echo.Context, r *Record) {
	name := r.Route
	if name == "" {
		name = r.Path
	}
	txn := s.app.StartTransaction(r.Method + " " + name)
	req := c.Request()
	txn.SetWebRequestHTTP(req)

	res := c.Response()
	res.Writer = txn.SetWebResponse(res.Writer)
	r.txn = txn
	c.SetRequest(req.WithContext(newrelic.NewContext(req.Context(), txn)))
}

// After ends the transaction. A failed handler has not written its response
// yet, so the status the error handler will send is recorded here.
func (*newRelicTxn) After(_ echo.Context, r *Record) {
	txn := r.txn
	if txn == nil {
		return
	}
	txn.AddAttribute("request_id", r.RequestID)
	if r.Err != nil {
		statusWriter(txn).WriteHeader(r.Status)
		if r.Status >= http.StatusInternalServerError {
			txn.NoticeError(r.Err)
		}
	}
	txn.End()
}
