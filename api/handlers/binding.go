package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	errs "github.com/cleardesk/cleardesk/pkg/errors"
)

// bindError renders a JSON binding failure as an RFC 7807 validation
// problem, with per-field entries when the validator reports them.
func bindError(c *gin.Context, err error) {
	pd := errs.NewValidationError("request body failed validation", c.Request.URL.Path)

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			pd.AddValidationError(
				strings.ToLower(fe.Field()),
				fmt.Sprintf("failed on the %q rule", fe.Tag()),
				fe.Tag(),
			)
		}
	} else {
		pd.Detail = fmt.Sprintf("invalid request body: %v", err)
	}

	errs.HandleError(c, pd)
}
