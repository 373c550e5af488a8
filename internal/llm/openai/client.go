package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/medparams/internal/common"
	"github.com/joseph-ayodele/medparams/internal/llm"
)

var (
	_ llm.Completer   = (*Client)(nil)
	_ llm.ModelMapper = (*Client)(nil)
)

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete posts req to {BaseURL}/chat/completions and returns the first
// choice's content. Failures come back as *common.AppError: TRANSPORT_ERROR
// when no response arrived, PROVIDER_ERROR for a non-2xx status or an
// unusable body.
func (c *Client) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	rid := common.RequestIDFromContext(ctx)
	start := time.Now()
	if c.cfg.BaseURL == "" {
		return "", common.ConfigurationError(c.cfg.Name + " endpoint URL is not configured")
	}
	req.Model = c.MapModel(req.Model)

	c.log.Info("llm.complete.start",
		"req_id", rid,
		"model", req.Model,
		"messages", len(req.Messages),
	)

	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	raw, status, err := llm.SendJSON(ctx, c.http, c.Endpoint(), req, headers, c.log)
	if status == 0 && err != nil {
		c.log.Error("llm.complete.transport_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.TransportError(transportMessage(c.cfg.Name, err), err)
	}
	if err != nil {
		msg := remoteErrorMessage(raw, status)
		c.log.Error("llm.complete.provider_error",
			"req_id", rid, "status", status, "message", msg,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError(common.CodeProvider, msg, &llm.StatusError{Status: status})
	}

	if err := llm.ValidateChatCompletion(raw); err != nil {
		c.log.Error("llm.complete.malformed_response",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return "", common.ProviderError(fmt.Sprintf("%s returned an unexpected response shape", c.cfg.Name))
	}

	var cc chatCompletion
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.complete.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return "", common.ProviderError(fmt.Sprintf("decode %s response: %v", c.cfg.Name, err))
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	c.log.Info("llm.complete.ok",
		"req_id", rid,
		"model", req.Model,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

// remoteErrorMessage extracts error.message from an OpenAI-style error body.
// Self-hosted servers sometimes send "error" as a plain string.
func remoteErrorMessage(raw []byte, status int) string {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
		var s string
		if err := json.Unmarshal(body.Error, &s); err == nil && s != "" {
			return s
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		text = text[:200] + "…"
	}
	if text == "" {
		return fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("HTTP %d: %s", status, text)
}

func transportMessage(backend string, err error) string {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return backend + " request timed out"
	case errors.Is(err, context.Canceled):
		return backend + " request was canceled"
	default:
		return fmt.Sprintf("could not reach %s backend: %v", backend, err)
	}
}
