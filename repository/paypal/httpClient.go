package paypalrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wayddd1/VanEaseRentalSystem/util/httpx"
)

type httpRepo struct {
	baseURL  string
	clientID string
	secret   string
	client   *http.Client
}

func NewHTTP(baseURL, clientID, secret string, timeout time.Duration) Repo {
	return &httpRepo{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		secret:   secret,
		client:   httpx.New(timeout),
	}
}

func (r *httpRepo) Verify(ctx context.Context, transactionID string) (bool, error) {
	if strings.TrimSpace(transactionID) == "" {
		return false, errors.New("paypal: empty transaction id")
	}
	token, err := r.accessToken(ctx)
	if err != nil {
		return false, err
	}
	order, err := r.order(ctx, token, transactionID)
	if err != nil {
		return false, err
	}
	return order.Status == OrderCompleted, nil
}

func (r *httpRepo) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(r.clientID, r.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("paypal token failed: %s", resp.Status)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("paypal token decode: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("paypal: empty access token")
	}
	return out.AccessToken, nil
}

func (r *httpRepo) order(ctx context.Context, token, id string) (*Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v2/checkout/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paypal order %s failed: %s", id, resp.Status)
	}

	var out Order
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("paypal order decode: %w", err)
	}
	return &out, nil
}
