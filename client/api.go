// Package client implements the app-side core of the blind-match flow: the
// love-print quiz, the rating queue, the shared relationship store, the
// polling chat channel, and the reveal report view. Everything talks to the
// backend through a bearer-token REST client; no other transport is used.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/abeme/go_bm_api/entity"
)

// APIError is a structured failure returned by the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is the authenticated REST client. UserID is set on login and used
// to attribute the caller's own messages.
type Client struct {
	BaseURL string
	Token   string
	UserID  string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var fail struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&fail)
		return &APIError{Status: resp.StatusCode, Message: fail.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, req entity.SignUpRequest) error {
	return c.do(ctx, http.MethodPost, "/signup", req, nil)
}

// Login authenticates and stores the bearer token and user id on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", entity.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return err
	}
	c.Token = out.Token
	c.UserID = out.UserID
	return nil
}

func (c *Client) Candidates(ctx context.Context) ([]entity.CandidateCard, error) {
	var out struct {
		Candidates []entity.CandidateCard `json:"candidates"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/candidates", nil, &out); err != nil {
		return nil, err
	}
	return out.Candidates, nil
}

// SubmitRating rates a candidate; reports whether the rating completed a
// mutual match and, if so, the new relationship id.
func (c *Client) SubmitRating(ctx context.Context, ratedUserID string, value int) (bool, string, error) {
	var out struct {
		Matched        bool   `json:"matched"`
		RelationshipID string `json:"relationship_id"`
	}
	req := entity.SubmitRatingRequest{RatedUserID: ratedUserID, Value: value}
	if err := c.do(ctx, http.MethodPost, "/api/ratings", req, &out); err != nil {
		return false, "", err
	}
	return out.Matched, out.RelationshipID, nil
}

func (c *Client) Relationships(ctx context.Context) ([]entity.RelationshipView, error) {
	var out struct {
		Relationships []entity.RelationshipView `json:"relationships"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/relationships", nil, &out); err != nil {
		return nil, err
	}
	return out.Relationships, nil
}

func (c *Client) Messages(ctx context.Context, relationshipID string) (*entity.MessageListResponse, error) {
	var out entity.MessageListResponse
	if err := c.do(ctx, http.MethodGet, "/api/relationships/"+relationshipID+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, relationshipID, body string) (*entity.SendMessageResponse, error) {
	var out entity.SendMessageResponse
	req := entity.SendMessageRequest{Body: body}
	if err := c.do(ctx, http.MethodPost, "/api/relationships/"+relationshipID+"/messages", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestReveal records this side's consent; returns entity.RevealWaiting or
// entity.RevealRevealed.
func (c *Client) RequestReveal(ctx context.Context, relationshipID string) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/relationships/"+relationshipID+"/reveal", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) Report(ctx context.Context, relationshipID string) (*entity.CompatibilityReport, error) {
	var out struct {
		Report *entity.CompatibilityReport `json:"report"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/relationships/"+relationshipID+"/report", nil, &out); err != nil {
		return nil, err
	}
	return out.Report, nil
}

func (c *Client) PublicProfile(ctx context.Context, userID string) (*entity.PublicProfile, error) {
	var out struct {
		Profile *entity.PublicProfile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/"+userID+"/profile", nil, &out); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

// DailyPrompt returns the question of the day, or nil when none is available.
func (c *Client) DailyPrompt(ctx context.Context) (*entity.DailyPrompt, error) {
	var out struct {
		Prompt *entity.DailyPrompt `json:"prompt"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/prompts/daily", nil, &out); err != nil {
		return nil, err
	}
	return out.Prompt, nil
}

func (c *Client) AnswerDailyPrompt(ctx context.Context, promptID uint, answer string) error {
	req := entity.AnswerPromptRequest{PromptID: promptID, Answer: answer}
	return c.do(ctx, http.MethodPost, "/api/prompts/daily/answer", req, nil)
}

func (c *Client) SubmitLovePrint(ctx context.Context, req entity.SubmitLovePrintRequest) error {
	return c.do(ctx, http.MethodPost, "/api/loveprints", req, nil)
}
