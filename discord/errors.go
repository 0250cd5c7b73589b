package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
)

var (
	ErrUnauthorized         = errors.New("improper token was passed")
	ErrForbidden            = errors.New("missing permissions for this action")
	ErrUnsupportedImageType = errors.New("unsupported image type given")
)

// RestError contains the error structure that is returned by discord.
type RestError struct {
	Request      *http.Request
	Response     *http.Response
	Message      *ErrorMessage
	ResponseBody []byte
}

// ErrorMessage represents a basic error message.
type ErrorMessage struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Code    int32           `json:"code"`
}

func NewRestError(req *http.Request, resp *http.Response, body []byte) *RestError {
	var errorMessage ErrorMessage

	_ = stagehandjson.Unmarshal(body, &errorMessage)

	return &RestError{
		Request:      req,
		Response:     resp,
		ResponseBody: body,
		Message:      &errorMessage,
	}
}

func (r *RestError) Error() string {
	return fmt.Sprintf("%s: %s", r.Response.Status, r.Message.Message)
}

// ValidationError is returned when arguments fail local validation. It is
// always raised before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", v.Field, v.Message)
}

// InvalidStateError is returned when a lifecycle shorthand is invoked
// from a status that forbids it.
type InvalidStateError struct {
	Action string
	Status EventStatus
}

func (i *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s scheduled event with status %d", i.Action, i.Status)
}

// EnumError is returned when an enum-valued argument is not a recognised
// member of its enumeration.
type EnumError struct {
	Enum  string
	Value int64
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("%d is not a valid %s", e.Value, e.Enum)
}
