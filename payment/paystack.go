package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const requestTimeout = 10 * time.Second

// PaystackGateway talks to the Paystack transaction API. Amounts go over
// the wire in the currency's minor unit (kobo/cents).
type PaystackGateway struct {
	baseURL        string
	secretKey      string
	client         *http.Client
	circuitBreaker *gobreaker.CircuitBreaker
	logger         *logrus.Logger
}

func NewPaystackGateway(baseURL, secretKey string, logger *logrus.Logger) *PaystackGateway {
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PaystackGateway",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		Interval:    0,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"path": "payment/paystack"}).Infof("Circuit Breaker '%s' changed from '%s' to '%s'", name, from, to)
		},
	})

	return &PaystackGateway{
		baseURL:        baseURL,
		secretKey:      secretKey,
		client:         &http.Client{Timeout: requestTimeout},
		circuitBreaker: circuitBreaker,
		logger:         logger,
	}
}

// initializeMetadata is echoed back verbatim on webhook deliveries.
type initializeMetadata struct {
	BookingID string `json:"booking_id"`
}

type initializeRequest struct {
	Amount    int64              `json:"amount"`
	Currency  string             `json:"currency"`
	Email     string             `json:"email"`
	Reference string             `json:"reference"`
	Metadata  initializeMetadata `json:"metadata"`
}

type initializeResponse struct {
	Status bool   `json:"status"`
	Messag string `json:"message"`
	Data   struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type verifyResponse struct {
	Status bool   `json:"status"`
	Messag string `json:"message"`
	Data   struct {
		Status          string `json:"status"`
		GatewayResponse string `json:"gateway_response"`
		Reference       string `json:"reference"`
		Amount          int64  `json:"amount"`
	} `json:"data"`
}

func (g *PaystackGateway) Charge(ctx context.Context, input ChargeInput) (*ChargeResult, error) {
	body, err := json.Marshal(initializeRequest{
		Amount:    toMinorUnits(input.Amount),
		Currency:  input.Currency,
		Email:     input.Email,
		Reference: input.Reference,
		Metadata:  initializeMetadata{BookingID: input.BookingID},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal initialize request: %w", err)
	}

	var parsed initializeResponse

	err = g.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &parsed)
	if err != nil {
		return nil, err
	}

	if !parsed.Status {
		return nil, fmt.Errorf("paystack initialize rejected: %s", parsed.Messag)
	}

	return &ChargeResult{
		ProviderReference: parsed.Data.Reference,
		AuthorizationURL:  parsed.Data.AuthorizationURL,
	}, nil
}

func (g *PaystackGateway) Verify(ctx context.Context, providerReference string) (*VerifyResult, error) {
	var parsed verifyResponse

	err := g.do(ctx, http.MethodGet, "/transaction/verify/"+providerReference, nil, &parsed)
	if err != nil {
		return nil, err
	}

	if !parsed.Status {
		return nil, fmt.Errorf("paystack verify rejected: %s", parsed.Messag)
	}

	if parsed.Data.Status != "success" {
		reason := parsed.Data.GatewayResponse
		if reason == "" {
			reason = "payment was not successful"
		}

		return &VerifyResult{Success: false, FailureReason: reason}, nil
	}

	return &VerifyResult{Success: true}, nil
}

func (g *PaystackGateway) do(ctx context.Context, method, path string, body *bytes.Reader, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	result, err := g.circuitBreaker.Execute(func() (interface{}, error) {
		var reqBody *bytes.Reader
		if body != nil {
			reqBody = body
		} else {
			reqBody = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Authorization", "Bearer "+g.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("paystack responded with status %d", resp.StatusCode)
		}

		var parsed json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("decode paystack response: %w", err)
		}

		return parsed, nil
	})
	if err != nil {
		g.logger.WithFields(logrus.Fields{"path": "payment/paystack"}).Error("Paystack request failed: ", err)

		return err
	}

	return json.Unmarshal(result.(json.RawMessage), out)
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
