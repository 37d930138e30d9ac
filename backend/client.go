package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	misauth "github.com/talha-007/mis-dashboard-sub000"
	"github.com/talha-007/mis-dashboard-sub000/policy"
)

const (
	pathSuperAdminLogin = "/api/v1/admin/auth/login"
	pathBankAdminLogin  = "/api/v1/bank/auth/login"
	pathCustomerLogin   = "/api/v1/customer/auth/login"
	pathMe              = "/api/v1/auth/me"
	pathLogout          = "/api/v1/auth/logout"
)

// Client defines a public type used by misauth APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a REST backend client. httpClient may be nil, in
// which case http.DefaultClient is used; set the timeout on the client
// you pass in.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	BankCode string `json:"bank_code,omitempty"`
}

type principalPayload struct {
	ID           string              `json:"id"`
	Role         string              `json:"role"`
	Permissions  []policy.Permission `json:"permissions"`
	Subscription string              `json:"subscription_status"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	Principal principalPayload `json:"principal"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Login(ctx context.Context, kind misauth.LoginKind, creds misauth.Credentials) (misauth.LoginResult, error) {
	var path string
	switch kind {
	case misauth.LoginSuperAdmin:
		path = pathSuperAdminLogin
	case misauth.LoginBankAdmin:
		path = pathBankAdminLogin
	case misauth.LoginCustomer:
		path = pathCustomerLogin
	default:
		return misauth.LoginResult{}, misauth.ErrLoginKindInvalid
	}

	req := loginRequest{
		Email:    creds.Email,
		Password: creds.Password,
	}
	if kind == misauth.LoginBankAdmin {
		req.BankCode = creds.BankCode
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, path, "", req, &resp, misauth.ErrInvalidCredentials); err != nil {
		return misauth.LoginResult{}, err
	}

	principal, err := decodePrincipal(resp.Principal)
	if err != nil {
		return misauth.LoginResult{}, err
	}

	return misauth.LoginResult{
		Token:     misauth.Credential(resp.Token),
		Principal: principal,
	}, nil
}

// CurrentPrincipal describes the currentprincipal operation and its observable behavior.
//
// CurrentPrincipal may return an error when input validation, dependency calls, or security checks fail.
// CurrentPrincipal does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) CurrentPrincipal(ctx context.Context, token misauth.Credential) (*policy.Principal, error) {
	var resp struct {
		Principal principalPayload `json:"principal"`
	}
	if err := c.do(ctx, http.MethodGet, pathMe, string(token), nil, &resp, misauth.ErrUnauthorized); err != nil {
		return nil, err
	}
	return decodePrincipal(resp.Principal)
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Logout(ctx context.Context, token misauth.Credential) error {
	return c.do(ctx, http.MethodPost, pathLogout, string(token), nil, nil, misauth.ErrUnauthorized)
}

// do runs one API call. A 401 maps to rejectErr; any other non-2xx
// status surfaces the server's message; transport failures wrap
// misauth.ErrBackendUnavailable.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any, rejectErr error) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", misauth.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", rejectErr, apiMessage(resp.Body))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", misauth.ErrBackendUnavailable, resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("backend: status %d: %s", resp.StatusCode, apiMessage(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("backend: decoding response: %w", err)
	}
	return nil
}

func apiMessage(body io.Reader) string {
	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&er); err != nil || er.Message == "" {
		return "request rejected"
	}
	return er.Message
}

func decodePrincipal(p principalPayload) (*policy.Principal, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("backend: principal missing id")
	}

	role, ok := policy.ParseRole(p.Role)
	if !ok {
		return nil, fmt.Errorf("backend: unknown role %q", p.Role)
	}

	return &policy.Principal{
		ID:           p.ID,
		Role:         role,
		Permissions:  policy.NewPermissionSet(p.Permissions...),
		Subscription: policy.ParseSubscriptionStatus(p.Subscription),
	}, nil
}
