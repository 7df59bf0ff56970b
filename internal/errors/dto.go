package errors

// ErrorResponse is the JSON body returned by the API on failure
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Display string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// CodeFromErr returns the code of the first sentinel the error is marked with
func CodeFromErr(err error) string {
	for sentinel := range statusCodeMap {
		if Is(err, sentinel) {
			if ie, ok := sentinel.(*InternalError); ok {
				return ie.Code
			}
		}
	}
	return ErrCodeSystemError
}
