package starsender

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"formnotif/internal/phone"
)

const (
	DefaultBaseURL = "https://api.starsender.online/api"
	DefaultTimeout = 30 * time.Second
)

const (
	MsgInvalidJSON      = "invalid JSON response"
	MsgSent             = "Message sent successfully"
	MsgUnknownError     = "Unknown error"
	MsgConnectionOK     = "Connection successful"
	MsgConnectionFailed = "Connection failed"
)

type MessageType string

const (
	TypeText     MessageType = "text"
	TypeImage    MessageType = "image"
	TypeDocument MessageType = "document"
	TypeVideo    MessageType = "video"
	TypeAudio    MessageType = "audio"
)

// ParseMessageType falls back to TypeText for anything outside the allow-list.
func ParseMessageType(s string) MessageType {
	switch t := MessageType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeText, TypeImage, TypeDocument, TypeVideo, TypeAudio:
		return t
	}
	return TypeText
}

// Client talks to the Starsender REST API. The API key itself is the
// credential and goes verbatim into the Authorization header.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func New(apiKey, baseURL string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

// WithAPIKey returns a copy of c using key.
func (c *Client) WithAPIKey(key string) *Client {
	cp := *c
	cp.APIKey = key
	return &cp
}

type SendRequest struct {
	To         string
	Body       string
	Type       MessageType
	FileURL    string
	DelayMS    *int
	ScheduleMS *int64
}

type sendPayload struct {
	MessageType MessageType `json:"messageType"`
	To          string      `json:"to"`
	Body        string      `json:"body"`
	File        string      `json:"file,omitempty"`
	Delay       *int        `json:"delay,omitempty"`
	Schedule    *int64      `json:"schedule,omitempty"`
}

// Result is the uniform outcome of every call. Failures of any kind are
// reported here, never as a Go error.
type Result struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data,omitempty"`
	RawResponse string          `json:"rawResponse,omitempty"`
	HTTPStatus  int             `json:"httpStatus,omitempty"`
}

// Send posts one message. The recipient is normalized first; no retry is
// attempted on failure.
func (c *Client) Send(ctx context.Context, req SendRequest) Result {
	to, _ := phone.Normalize(req.To, phone.Rules{}, false)
	payload := sendPayload{
		MessageType: ParseMessageType(string(req.Type)),
		To:          to,
		Body:        req.Body,
		File:        req.FileURL,
		Delay:       req.DelayMS,
		Schedule:    req.ScheduleMS,
	}
	return c.do(ctx, http.MethodPost, "/send", payload, MsgSent, MsgUnknownError)
}

// GetMessage fetches the status of a previously sent message.
func (c *Client) GetMessage(ctx context.Context, id string) Result {
	return c.do(ctx, http.MethodGet, "/messages/"+url.PathEscape(id), nil, MsgSent, MsgUnknownError)
}

// TestConnection lists devices to check that the key is accepted, without
// sending anything. A successful probe always reports MsgConnectionOK.
func (c *Client) TestConnection(ctx context.Context) Result {
	res := c.do(ctx, http.MethodGet, "/devices", nil, MsgConnectionOK, MsgConnectionFailed)
	if res.Success {
		res.Message = MsgConnectionOK
	}
	return res
}

// ValidateAPIKey is a cheap format check done before any network call.
func ValidateAPIKey(key string) bool {
	return len(strings.TrimSpace(key)) > 10
}

func (c *Client) do(ctx context.Context, method, path string, body any, okMsg, failMsg string) Result {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Result{Success: false, Message: err.Error()}
		}
		reader = bytes.NewReader(b)
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.APIKey)

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Success: false, Message: err.Error(), HTTPStatus: resp.StatusCode}
	}
	return decode(raw, resp.StatusCode, okMsg, failMsg)
}

// decode applies the response contract: only a JSON object carrying a
// boolean success=true is a success.
func decode(raw []byte, status int, okMsg, failMsg string) Result {
	if !json.Valid(raw) {
		return Result{Success: false, Message: MsgInvalidJSON, RawResponse: string(raw), HTTPStatus: status}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Result{Success: false, Message: failMsg, Data: raw, HTTPStatus: status}
	}

	msg := ""
	if m, ok := obj["message"]; ok {
		_ = json.Unmarshal(m, &msg)
	}
	if s, ok := obj["success"]; ok && bytes.Equal(bytes.TrimSpace(s), []byte("true")) {
		if msg == "" {
			msg = okMsg
		}
		return Result{Success: true, Message: msg, Data: obj["data"], HTTPStatus: status}
	}
	if msg == "" {
		msg = failMsg
	}
	return Result{Success: false, Message: msg, Data: raw, HTTPStatus: status}
}
