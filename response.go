package nano

import (
	"encoding/json"
	"net/http"
)

// MsgSuccess is the message of every successful envelope.
const MsgSuccess = "Success"

// Envelope is the body of every response.
//
//	{"code": 200, "msg": "Success", "data": ...}
//	{"code": 404, "msg": "pet 7 not found", "data": {"code": "not_found"}}
//
// Code repeats the HTTP status.
type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// ErrorData is the data of an error envelope.
type ErrorData struct {
	Code    ErrorCode      `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

func writeData(w http.ResponseWriter, data any) {
	writeEnvelope(w, Envelope{Code: http.StatusOK, Msg: MsgSuccess, Data: data})
}

func writeError(w http.ResponseWriter, e *Error) {
	writeEnvelope(w, Envelope{
		Code: e.Code.HTTPStatus(),
		Msg:  e.Message,
		Data: ErrorData{Code: e.Code, Details: e.Details},
	})
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		// Headers are already sent.
		log.Errorw("failed to encode response", "code", env.Code, "error", err)
	}
}
