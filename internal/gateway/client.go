package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/config"
	"github.com/spec-kit/triage-dashboard/internal/domain"
	"github.com/spec-kit/triage-dashboard/internal/observability"
)

const (
	opListTickets    = "list_tickets"
	opReassign       = "reassign"
	opListTeams      = "list_teams"
	opListActivities = "list_activities"

	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 256

	maxIdleConnDuration = 90 * time.Second
)

// Client is the HTTP boundary to the ticket backend. Every call shares one
// connection pool.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
	logger  *zap.Logger
	metrics *observability.Metrics
	decode  *decoder
}

// NewClient builds a gateway client. The base URL comes from configuration,
// never from a compiled-in constant.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout(),
		http: &fasthttp.Client{
			Name:                cfg.UserAgent,
			MaxIdleConnDuration: maxIdleConnDuration,
		},
		logger:  logger.Named("gateway"),
		metrics: metrics,
		decode:  newDecoder(),
	}
}

// ListTickets fetches tickets, optionally narrowed to one team.
func (c *Client) ListTickets(ctx context.Context, team string) ([]domain.Ticket, error) {
	endpoint := c.baseURL + "/tickets"
	if team != "" {
		endpoint += "?" + url.Values{"teamName": []string{team}}.Encode()
	}
	body, err := c.do(ctx, opListTickets, fiber.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.decode.tickets(opListTickets, body)
}

// Reassign records a human override for one ticket. A 2xx response confirms
// the change even when its body cannot be read; the returned activity then
// echoes the request.
func (c *Client) Reassign(ctx context.Context, ticketNumber string, req domain.ReassignmentRequest) (*domain.ReassignmentActivity, error) {
	endpoint := fmt.Sprintf("%s/tickets/%s/activities/reassign", c.baseURL, url.PathEscape(ticketNumber))
	body, err := c.do(ctx, opReassign, fiber.MethodPost, endpoint, req)
	if err != nil {
		return nil, err
	}

	echo := &domain.ReassignmentActivity{
		AIAssignedTeam:    req.AIAssignedTeam,
		HumanAssignedTeam: req.HumanAssignedTeam,
		AISuggestedWrong:  req.AISuggestedWrong,
		TeamReview:        req.TeamReview,
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return echo, nil
	}
	activity, err := c.decode.activity(opReassign, body)
	if err != nil {
		c.logger.Warn("reassignment confirmed with unreadable body",
			zap.String("ticket_number", ticketNumber), zap.Error(err))
		return echo, nil
	}
	return activity, nil
}

// ListTeams fetches the selectable teams.
func (c *Client) ListTeams(ctx context.Context) ([]domain.Team, error) {
	body, err := c.do(ctx, opListTeams, fiber.MethodGet, c.baseURL+"/teams", nil)
	if err != nil {
		return nil, err
	}
	return c.decode.teams(opListTeams, body)
}

// ListActivities fetches the recorded reassignments of one ticket, oldest first.
func (c *Client) ListActivities(ctx context.Context, ticketNumber string) ([]domain.ReassignmentActivity, error) {
	endpoint := fmt.Sprintf("%s/tickets/%s/activities", c.baseURL, url.PathEscape(ticketNumber))
	body, err := c.do(ctx, opListActivities, fiber.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.decode.activities(opListActivities, body)
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, payload any) ([]byte, error) {
	timeout, err := c.callTimeout(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	requestID := uuid.NewString()
	req.Header.SetMethod(method)
	req.SetRequestURI(endpoint)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	req.Header.Set(requestIDHeader, requestID)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			c.metrics.RecordGatewayCall(op, 0)
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		req.Header.SetContentType(fiber.MIMEApplicationJSON)
		req.SetBody(data)
	}

	start := time.Now()
	if timeout > 0 {
		err = c.http.DoTimeout(req, resp, timeout)
	} else {
		err = c.http.Do(req, resp)
	}
	log := c.logger.With(
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		c.metrics.RecordGatewayCall(op, 0)
		log.Warn("gateway call failed", zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	c.metrics.RecordGatewayCall(op, status)
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		log.Warn("gateway call rejected", zap.Int("status", status))
		return nil, &StatusError{Op: op, StatusCode: status, Body: truncate(body, maxErrorBody)}
	}
	log.Debug("gateway call", zap.Int("status", status))
	return body, nil
}

// callTimeout bounds the call timeout by the context deadline, since the
// fasthttp client is not context aware.
func (c *Client) callTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}
