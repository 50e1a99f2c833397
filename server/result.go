package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// endpointResult is what an endpoint handler produces: the status and body
// to send, plus an internal message that goes to the server log but never to
// the client.
type endpointResult struct {
	status      int
	isErr       bool
	resp        interface{}
	internalMsg string
	hdrs        [][2]string
}

func (r endpointResult) withHeader(name, value string) endpointResult {
	r.hdrs = append(r.hdrs, [2]string{name, value})
	return r
}

func (r endpointResult) writeResponse(w http.ResponseWriter, req *http.Request) {
	var respJSON []byte

	if r.status != http.StatusNoContent {
		var err error
		respJSON, err = json.Marshal(r.resp)
		if err != nil {
			res := jsonInternalServerError("could not marshal response: " + err.Error())
			res.writeResponse(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/json")
	}

	for _, hdr := range r.hdrs {
		w.Header().Set(hdr[0], hdr[1])
	}

	w.WriteHeader(r.status)
	if r.status != http.StatusNoContent {
		w.Write(respJSON)
	}

	level := "INFO "
	if r.isErr {
		level = "WARN "
	}
	log.Printf("%s %d %s %s: %s", level, r.status, req.Method, req.URL.Path, r.internalMsg)
}

func internalMessage(defaultMsg string, internalMsg []interface{}) string {
	if len(internalMsg) < 1 {
		return defaultMsg
	}
	format := internalMsg[0].(string)
	return fmt.Sprintf(format, internalMsg[1:]...)
}

// jsonOK returns an endpointResult containing an HTTP-200 along with a more
// detailed message (if desired; if none is provided it defaults to a generic
// one) that goes to the log but is not displayed to the user.
func jsonOK(respObj interface{}, internalMsg ...interface{}) endpointResult {
	return endpointResult{
		status:      http.StatusOK,
		resp:        respObj,
		internalMsg: internalMessage("OK", internalMsg),
	}
}

// jsonCreated returns an endpointResult containing an HTTP-201 along with a
// more detailed message for the log.
func jsonCreated(respObj interface{}, internalMsg ...interface{}) endpointResult {
	return endpointResult{
		status:      http.StatusCreated,
		resp:        respObj,
		internalMsg: internalMessage("created", internalMsg),
	}
}

// jsonNoContent returns an endpointResult containing an HTTP-204 along with
// a more detailed message for the log.
func jsonNoContent(internalMsg ...interface{}) endpointResult {
	return endpointResult{
		status:      http.StatusNoContent,
		internalMsg: internalMessage("no content", internalMsg),
	}
}

func jsonErr(status int, userMsg, defaultMsg string, internalMsg []interface{}) endpointResult {
	return endpointResult{
		status:      status,
		isErr:       true,
		resp:        ErrorResponse{Error: userMsg, Status: status},
		internalMsg: internalMessage(defaultMsg, internalMsg),
	}
}

// jsonBadRequest returns an endpointResult containing an HTTP-400 whose body
// carries userMsg.
func jsonBadRequest(userMsg string, internalMsg ...interface{}) endpointResult {
	return jsonErr(http.StatusBadRequest, userMsg, "bad request", internalMsg)
}

// jsonUnauthorized returns an endpointResult containing an HTTP-401 with the
// proper WWW-Authenticate header. The internal message is logged; the user
// sees a generic explanation.
func jsonUnauthorized(internalMsg ...interface{}) endpointResult {
	res := jsonErr(http.StatusUnauthorized, "You are not authorized to do that", "unauthorized", internalMsg)
	return res.withHeader("WWW-Authenticate", `Basic realm="Grotto", charset="utf-8"`)
}

// jsonForbidden returns an endpointResult containing an HTTP-403.
func jsonForbidden(internalMsg ...interface{}) endpointResult {
	return jsonErr(http.StatusForbidden, "You don't have permission to do that", "forbidden", internalMsg)
}

// jsonNotFound returns an endpointResult containing an HTTP-404.
func jsonNotFound(internalMsg ...interface{}) endpointResult {
	return jsonErr(http.StatusNotFound, "The requested resource was not found", "not found", internalMsg)
}

// jsonConflict returns an endpointResult containing an HTTP-409 whose body
// carries userMsg.
func jsonConflict(userMsg string, internalMsg ...interface{}) endpointResult {
	return jsonErr(http.StatusConflict, userMsg, "conflict", internalMsg)
}

// jsonMethodNotAllowed returns an endpointResult containing an HTTP-405 for
// the method in req.
func jsonMethodNotAllowed(req *http.Request, internalMsg ...interface{}) endpointResult {
	userMsg := fmt.Sprintf("Method %s is not allowed for %s", req.Method, req.URL.Path)
	return jsonErr(http.StatusMethodNotAllowed, userMsg, "method not allowed", internalMsg)
}

// jsonInternalServerError returns an endpointResult containing an HTTP-500.
// The internal message is logged; the user sees a generic explanation.
func jsonInternalServerError(internalMsg ...interface{}) endpointResult {
	return jsonErr(http.StatusInternalServerError, "An internal server error occurred", "internal server error", internalMsg)
}
