package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"sporthub-service/internal/apperrors"
)

const defaultBaseURL = "https://verify.twilio.com"

// Provider error codes surfaced by the verification API.
const (
	providerCodeInvalidPhone = 60200
	providerCodeInvalidCode  = 60202
	providerCodeRateLimited  = 60203
)

var (
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	codePattern  = regexp.MustCompile(`^\d{6}$`)
)

var (
	ErrInvalidPhoneFormat = apperrors.InvalidArg("phone number must be in E.164 format")
	ErrInvalidCodeFormat  = apperrors.InvalidArg("verification code must be exactly 6 digits")
	ErrInvalidPhoneNumber = apperrors.InvalidArg("invalid phone number")
	ErrInvalidCode        = apperrors.InvalidArg("invalid verification code")
	ErrRateLimited        = apperrors.RateLimited("too many verification attempts")
)

// Verifier is the send/check contract the handlers depend on.
type Verifier interface {
	SendVerification(ctx context.Context, phoneNumber string) (string, error)
	CheckVerification(ctx context.Context, phoneNumber, code string) (bool, error)
}

// Client talks to the Twilio Verify REST API. It keeps no local state; one
// attempt per call, no retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	serviceSID string
}

func NewClient(accountSID, authToken, serviceSID string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		accountSID: accountSID,
		authToken:  authToken,
		serviceSID: serviceSID,
	}
}

// SendVerification starts an SMS verification and returns the provider
// status (normally "pending").
func (c *Client) SendVerification(ctx context.Context, phoneNumber string) (string, error) {
	if !phonePattern.MatchString(phoneNumber) {
		return "", ErrInvalidPhoneFormat
	}

	form := url.Values{}
	form.Set("To", phoneNumber)
	form.Set("Channel", "sms")

	resp, err := c.post(ctx, fmt.Sprintf("/v2/Services/%s/Verifications", c.serviceSID), form)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

// CheckVerification validates a code. A non-approved provider status is a
// regular false result, not an error.
func (c *Client) CheckVerification(ctx context.Context, phoneNumber, code string) (bool, error) {
	if !phonePattern.MatchString(phoneNumber) {
		return false, ErrInvalidPhoneFormat
	}
	if !codePattern.MatchString(code) {
		return false, ErrInvalidCodeFormat
	}

	form := url.Values{}
	form.Set("To", phoneNumber)
	form.Set("Code", code)

	resp, err := c.post(ctx, fmt.Sprintf("/v2/Services/%s/VerificationCheck", c.serviceSID), form)
	if err != nil {
		return false, err
	}
	return resp.Status == "approved", nil
}

type providerResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*providerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperrors.Internal("build verification request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Provider("verification provider unreachable", err)
	}
	defer httpResp.Body.Close()

	var resp providerResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, apperrors.Provider("malformed provider response", err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, mapProviderError(resp)
	}
	return &resp, nil
}

func mapProviderError(resp providerResponse) error {
	switch resp.Code {
	case providerCodeInvalidPhone:
		return ErrInvalidPhoneNumber
	case providerCodeInvalidCode:
		return ErrInvalidCode
	case providerCodeRateLimited:
		return ErrRateLimited
	default:
		return apperrors.Provider("verification provider error", fmt.Errorf("code %d: %s", resp.Code, resp.Message))
	}
}
