// response.go - Response envelope shared by every endpoint
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	MIMEApplicationMsgpack = "application/msgpack"
)

// Response is the uniform envelope of every JSON and msgpack response.
type Response struct {
	Status  string `json:"status"  msgpack:"status"`
	Type    string `json:"type"    msgpack:"type"`
	Title   string `json:"title"   msgpack:"title"`
	Message string `json:"message" msgpack:"message"`
	Data    any    `json:"data"    msgpack:"data"`
	Errors  any    `json:"errors"  msgpack:"errors"`
}

func success(typ, title, message string, data any) Response {
	return Response{
		Status:  StatusSuccess,
		Type:    typ,
		Title:   title,
		Message: message,
		Data:    data,
	}
}

func respondJSON(c echo.Context, code int, resp Response) error {
	return c.JSON(code, resp)
}

func respondMsgpack(c echo.Context, code int, resp Response) error {
	data, err := msgpack.Marshal(resp)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(code, MIMEApplicationMsgpack, data)
}

// respond writes resp as msgpack when asMsgpack is set, JSON otherwise.
func respond(c echo.Context, asMsgpack bool, resp Response) error {
	if asMsgpack {
		return respondMsgpack(c, http.StatusOK, resp)
	}
	return respondJSON(c, http.StatusOK, resp)
}
