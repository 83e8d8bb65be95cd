package clients

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
	KindAuth       Kind = "auth"
	KindNotFound   Kind = "notFound"
	KindValidation Kind = "validation"
	KindGeneric    Kind = "generic"
)

const (
	msgTimeout = "通信がタイムアウトしました。インターネット接続を確認してください。"
	msgNetwork = "ネットワークに接続できません。インターネット接続を確認してください。"
	msgDefault = "エラーが発生しました。"
)

var statusMessages = map[int]string{
	http.StatusBadRequest:          "入力内容に問題があります。確認してください。",
	http.StatusUnauthorized:        "セッションが切れました。再度ログインしてください。",
	http.StatusForbidden:           "この操作を行う権限がありません。",
	http.StatusNotFound:            "要求されたデータが見つかりません。",
	http.StatusUnprocessableEntity: "入力内容に問題があります。確認してください。",
	http.StatusInternalServerError: "サーバーで問題が発生しました。しばらくしてから再度お試しください。",
	http.StatusBadGateway:          "サーバーに接続できません。しばらくしてから再度お試しください。",
	http.StatusServiceUnavailable:  "サービスが一時的に利用できません。しばらくしてから再度お試しください。",
}

// Error is a classified backend failure. Status is zero when no response
// was received.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	if e.Detail != "" {
		return string(e.Kind) + ": " + e.Detail
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps any error to the user-facing taxonomy. Errors that did not
// come from this package classify as generic.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &Error{Kind: KindGeneric, Message: msgDefault, Err: err}
}

// IsUnauthorized reports whether the backend rejected the access token.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsNotFound reports a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindGeneric
	}
}

func messageForStatus(status int) string {
	if msg, ok := statusMessages[status]; ok {
		return msg
	}
	return msgDefault
}

// statusError builds the error for a non-2xx response. The backend's own
// detail or message wins over the status table.
func statusError(status int, body []byte) *Error {
	out := &Error{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: messageForStatus(status),
	}
	if detail := backendMessage(body); detail != "" {
		out.Detail = detail
		out.Message = detail
	}
	return out
}

func backendMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var detail string
	if len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
		return detail
	}
	return payload.Message
}

func transportError(err error) *Error {
	out := &Error{Kind: KindNetwork, Message: msgNetwork, Err: errors.Wrap(err, "backend request")}
	if isTimeout(err) {
		out.Message = msgTimeout
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
