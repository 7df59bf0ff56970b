package middleware

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware handles error responses
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		response := ierr.ErrorResponse{
			Success: false,
			Error: ierr.ErrorDetail{
				Display: getDisplayMessage(err),
				Code:    ierr.CodeFromErr(err),
				Details: getSafeDetails(err),
			},
			RequestID: types.GetRequestID(c.Request.Context()),
		}

		c.JSON(ierr.HTTPStatusFromErr(err), response)
	}
}

func getDisplayMessage(err error) string {
	// GetAllHints is a post-order traversal, the first non-empty hint is the outermost one
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return "An unexpected error occurred"
}

func getSafeDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			jsonStr, ok := strings.CutPrefix(payload, "__json__:")
			if !ok {
				continue
			}

			var jsonDetails map[string]any
			if err := json.Unmarshal([]byte(jsonStr), &jsonDetails); err == nil {
				for k, v := range jsonDetails {
					details[k] = v
				}
			}
		}
	}

	return details
}
