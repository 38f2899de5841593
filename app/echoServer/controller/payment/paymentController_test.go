package payment

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/jwtx"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/validation"
	"github.com/wayddd1/VanEaseRentalSystem/model"
	paymentsvc "github.com/wayddd1/VanEaseRentalSystem/service/payment"
	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
)

type fakeSvc struct {
	paymentsvc.Service
	createFn func(who model.Identity, req model.PaymentRequest) (*model.Payment, error)
	refundFn func(who model.Identity, id int64) (*model.Payment, error)
}

func (f *fakeSvc) Create(ctx context.Context, who model.Identity, req model.PaymentRequest) (*model.Payment, error) {
	return f.createFn(who, req)
}

func (f *fakeSvc) Refund(ctx context.Context, who model.Identity, id int64) (*model.Payment, error) {
	return f.refundFn(who, id)
}

func serve(t *testing.T, h echo.HandlerFunc, who model.Identity, body string, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	jwtx.SetIdentity(c, who)
	require.NoError(t, h(c))
	return rec
}

func newCtl(svc paymentsvc.Service) *Controller {
	return &Controller{Svc: svc, V: validation.Engine(), Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestCreate_PassesDecimalAmount(t *testing.T) {
	who := model.Identity{UserID: 10, Role: model.RoleCustomer}
	svc := &fakeSvc{createFn: func(got model.Identity, req model.PaymentRequest) (*model.Payment, error) {
		require.Equal(t, who, got)
		require.True(t, req.Amount.Equal(decimal.RequireFromString("150.00")))
		require.Equal(t, model.MethodPayPal, req.Method)
		return &model.Payment{ID: 7, BookingID: req.BookingID, Amount: req.Amount, Method: req.Method, Status: model.PaymentSuccess}, nil
	}}

	rec := serve(t, newCtl(svc).Create, who, `{"booking_id":4,"amount":"150.00","payment_method":"PAYPAL","transaction_id":"5O190127TN364715T"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"payment_status":"SUCCESS"`)
}

func TestCreate_ErrorCodes(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"duplicate":  {svcerr.New(svcerr.ErrConflict, "booking already has a payment"), http.StatusConflict},
		"not active": {svcerr.New(svcerr.ErrInvalidState, "booking is not active"), http.StatusConflict},
		"not owner":  {svcerr.New(svcerr.ErrUnauthorized, "not your booking"), http.StatusForbidden},
		"amount":     {svcerr.New(svcerr.ErrInvalidInput, "amount must be positive"), http.StatusBadRequest},
		"missing":    {svcerr.New(svcerr.ErrNotFound, "booking 4 not found"), http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeSvc{createFn: func(model.Identity, model.PaymentRequest) (*model.Payment, error) { return nil, tc.err }}
			rec := serve(t, newCtl(svc).Create, model.Identity{UserID: 10, Role: model.RoleCustomer},
				`{"booking_id":4,"amount":150,"payment_method":"CASH_ON_HAND"}`, "")
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRefund(t *testing.T) {
	mgr := model.Identity{UserID: 1, Role: model.RoleManager}
	svc := &fakeSvc{refundFn: func(who model.Identity, id int64) (*model.Payment, error) {
		require.Equal(t, int64(7), id)
		if !who.Privileged() {
			return nil, svcerr.New(svcerr.ErrUnauthorized, "manager or admin role required")
		}
		return &model.Payment{ID: id, Status: model.PaymentRefunded}, nil
	}}
	ctl := newCtl(svc)

	rec := serve(t, ctl.Refund, mgr, "", "7")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"payment_status":"REFUNDED"`)

	rec = serve(t, ctl.Refund, model.Identity{UserID: 10, Role: model.RoleCustomer}, "", "7")
	require.Equal(t, http.StatusForbidden, rec.Code)
}
