package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/scorely/scorely/internal/profiles"
	"github.com/scorely/scorely/pkg/lifecycle"
)

// Terminal and progress statuses reported by the marketplace deal endpoint.
const (
	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
)

type client struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
	ready  atomic.Bool
}

// New builds a marketplace-backed gateway from deployment configuration.
func New(config *Config, logger *slog.Logger) System {
	return &client{
		config: config,
		http: &http.Client{
			Timeout: config.RequestTimeoutDuration(),
		},
		logger: logger.With("system", "gateway"),
	}
}

// Start registers a startup probe verifying the marketplace endpoint serves
// the configured chain. The gateway stays uninitialized on probe failure and
// every subsequent operation returns ErrNotInitialized.
func (c *client) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting gateway system")

	lc.OnStartup(func() {
		var chain struct {
			ChainID int64 `json:"chainId"`
			Live    bool  `json:"live"`
		}
		path := fmt.Sprintf("/v1/chains/%s", c.config.chainLabel())
		if err := c.do(lc.Context(), http.MethodGet, path, nil, &chain); err != nil {
			c.logger.Error("marketplace probe failed", "error", err)
			return
		}
		if chain.ChainID != c.config.ChainID {
			c.logger.Error("marketplace chain mismatch",
				"served", chain.ChainID,
				"configured", c.config.ChainID,
			)
			return
		}
		c.ready.Store(true)
		c.logger.Info("gateway initialized",
			"chain", c.config.ChainID,
			"app", c.config.AppAddress,
		)
	})
	return nil
}

func (c *client) Ready() bool {
	return c.ready.Load()
}

func (c *client) Protect(ctx context.Context, profile *profiles.FinancialProfile) (string, error) {
	if !c.ready.Load() {
		return "", ErrNotInitialized
	}
	content, err := json.Marshal(profile)
	if err != nil {
		return "", err
	}
	request := struct {
		Name    string `json:"name"`
		Owner   string `json:"owner,omitempty"`
		Schema  string `json:"schema"`
		Content string `json:"content"`
	}{
		Name:    fmt.Sprintf("scorely_credit_data_%d", time.Now().UnixMilli()),
		Owner:   c.config.RequesterAddress,
		Schema:  "application/json",
		Content: base64.StdEncoding.EncodeToString(content),
	}
	var response struct {
		Address string `json:"address"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/datasets", request, &response); err != nil {
		return "", err
	}
	if response.Address == "" {
		return "", fmt.Errorf("marketplace returned no dataset address")
	}
	c.logger.Info("profile protected", "address", response.Address)
	return response.Address, nil
}

func (c *client) GrantAccess(ctx context.Context, protectedDataAddress string) (string, error) {
	if !c.ready.Load() {
		return "", ErrNotInitialized
	}
	if c.config.RequesterAddress == "" {
		return "", ErrNoIdentity
	}
	request := struct {
		ProtectedData  string `json:"protectedData"`
		AuthorizedApp  string `json:"authorizedApp"`
		AuthorizedUser string `json:"authorizedUser"`
		PricePerAccess int64  `json:"pricePerAccess"`
		NumberOfAccess int    `json:"numberOfAccess"`
	}{
		ProtectedData:  protectedDataAddress,
		AuthorizedApp:  c.config.AppAddress,
		AuthorizedUser: c.config.RequesterAddress,
		PricePerAccess: 0,
		NumberOfAccess: c.config.AccessCount,
	}
	var response struct {
		TxHash string `json:"txHash"`
		Sign   string `json:"sign"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/grants", request, &response); err != nil {
		return "", err
	}
	proof := response.TxHash
	if proof == "" {
		proof = response.Sign
	}
	c.logger.Info("access granted", "data", protectedDataAddress)
	return proof, nil
}

type dealState struct {
	DealID  string `json:"dealId"`
	TaskID  string `json:"taskId"`
	Status  string `json:"status"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (c *client) Process(ctx context.Context, protectedDataAddress string, onStatus StatusFunc) (Dispatch, error) {
	if !c.ready.Load() {
		return Dispatch{}, ErrNotInitialized
	}
	request := struct {
		ProtectedData      string `json:"protectedData"`
		App                string `json:"app"`
		Workerpool         string `json:"workerpool"`
		Requester          string `json:"requester,omitempty"`
		Category           int    `json:"category"`
		AppMaxPrice        int64  `json:"appMaxPrice"`
		WorkerpoolMaxPrice int64  `json:"workerpoolMaxPrice"`
		ResultPath         string `json:"resultPath"`
	}{
		ProtectedData:      protectedDataAddress,
		App:                c.config.AppAddress,
		Workerpool:         c.config.WorkerpoolAddress,
		Requester:          c.config.RequesterAddress,
		Category:           c.config.Category,
		AppMaxPrice:        c.config.AppMaxPrice,
		WorkerpoolMaxPrice: c.config.WorkerpoolMaxPrice,
		ResultPath:         "result.json",
	}
	var deal dealState
	if err := c.do(ctx, http.MethodPost, "/v1/deals", request, &deal); err != nil {
		return Dispatch{}, err
	}
	if deal.DealID == "" {
		return Dispatch{}, fmt.Errorf("marketplace returned no deal id")
	}
	c.notify(onStatus, deal)
	return c.awaitDeal(ctx, deal, onStatus)
}

// awaitDeal polls the deal until it reaches a terminal status, forwarding
// every observed transition so callers can capture the task id as soon as
// the marketplace assigns one.
func (c *client) awaitDeal(ctx context.Context, deal dealState, onStatus StatusFunc) (Dispatch, error) {
	ticker := time.NewTicker(c.config.PollIntervalDuration())
	defer ticker.Stop()

	path := fmt.Sprintf("/v1/deals/%s", deal.DealID)
	for {
		select {
		case <-ctx.Done():
			return Dispatch{}, ctx.Err()
		case <-ticker.C:
		}

		var current dealState
		if err := c.do(ctx, http.MethodGet, path, nil, &current); err != nil {
			return Dispatch{}, err
		}
		if current.DealID == "" {
			current.DealID = deal.DealID
		}
		c.notify(onStatus, current)

		switch current.Status {
		case statusCompleted:
			if current.TaskID == "" {
				return Dispatch{}, fmt.Errorf("deal %s completed without a task id", current.DealID)
			}
			return Dispatch{TaskID: current.TaskID, DealID: current.DealID}, nil
		case statusFailed:
			message := current.Message
			if message == "" {
				message = fmt.Sprintf("deal %s failed", current.DealID)
			}
			return Dispatch{}, &ComputationError{Message: message}
		}
	}
}

func (c *client) notify(onStatus StatusFunc, deal dealState) {
	if onStatus == nil {
		return
	}
	title := deal.Title
	if title == "" {
		title = deal.Status
	}
	onStatus(StatusUpdate{
		Title: title,
		Payload: StatusPayload{
			TaskID: deal.TaskID,
			DealID: deal.DealID,
		},
	})
}

func (c *client) FetchResult(ctx context.Context, taskID string) (*ScoreResult, error) {
	if !c.ready.Load() {
		return nil, ErrNotInitialized
	}
	path := fmt.Sprintf("/v1/tasks/%s/result", taskID)
	data, err := c.download(ctx, path)
	if err != nil {
		return nil, err
	}
	result, err := DecodeBundle(data)
	if err != nil {
		return nil, err
	}
	result.TaskID = taskID
	return result, nil
}

func (c *client) EnsureStake(ctx context.Context) (Stake, error) {
	if !c.ready.Load() {
		return Stake{}, ErrNotInitialized
	}
	if c.config.RequesterAddress == "" {
		return Stake{}, ErrNoIdentity
	}
	var account struct {
		Stake   int64 `json:"stake"`
		Balance int64 `json:"balance"`
	}
	path := fmt.Sprintf("/v1/accounts/%s", c.config.RequesterAddress)
	if err := c.do(ctx, http.MethodGet, path, nil, &account); err != nil {
		return Stake{}, err
	}
	if account.Stake >= c.config.MinStake {
		return Stake{Deposited: false, Balance: account.Stake}, nil
	}

	deposit := struct {
		Amount int64 `json:"amount"`
	}{Amount: c.config.MinStake - account.Stake}
	var after struct {
		Stake int64 `json:"stake"`
	}
	if err := c.do(ctx, http.MethodPost, path+"/deposits", deposit, &after); err != nil {
		return Stake{}, err
	}
	c.logger.Info("stake deposited", "amount", deposit.Amount, "stake", after.Stake)
	return Stake{Deposited: true, Balance: after.Stake}, nil
}

func (c *client) ExplorerLink(kind, id string) string {
	base := strings.TrimSuffix(c.config.ExplorerBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, kind, id)
}

// do issues a JSON request and decodes the response. Marketplace error
// messages are preserved verbatim so they can surface to run history.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return apiError(res)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func (c *client) download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, apiError(res)
	}
	return io.ReadAll(res.Body)
}

func apiError(res *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return fmt.Errorf("%s", body.Error)
		}
		if body.Message != "" {
			return fmt.Errorf("%s", body.Message)
		}
	}
	return fmt.Errorf("marketplace request failed: %s", res.Status)
}
