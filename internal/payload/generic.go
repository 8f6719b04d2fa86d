package payload

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/notifyhub/jf-pushover-webhook/internal/domain"
)

var validate = validator.New()

// Field aliases accepted by the generic endpoint, in precedence order.
var (
	messageKeys = []string{"message", "msg", "text"}
	imageKeys   = []string{"image_url", "attachment_url"}
)

// NormalizeGeneric builds a notification from a generic webhook body.
// The returned warnings describe input that was ignored without failing
// the request, such as a malformed image URL.
func NormalizeGeneric(contentType string, body []byte, defaultTitle string) (domain.Notification, []string, error) {
	fields, _, err := Decode(contentType, body)
	if err != nil {
		return domain.Notification{}, nil, err
	}

	var warnings []string
	n := domain.Notification{
		Title:   firstField(fields, "title"),
		Message: firstField(fields, messageKeys...),
	}
	if n.Title == "" {
		n.Title = defaultTitle
	}

	if raw := firstField(fields, imageKeys...); raw != "" {
		if err := validate.Var(raw, "http_url"); err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped image_url %q: not an absolute http(s) URL", raw))
		} else {
			n.ImageURL = raw
		}
	}

	if err := validate.Struct(n); err != nil {
		return domain.Notification{}, warnings, notificationError(err)
	}
	return n, warnings, nil
}

func notificationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Message" {
				return domain.ErrMissingMessage
			}
		}
		return fmt.Errorf("%w: field %s failed %q", domain.ErrInvalidPayload, verrs[0].Field(), verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
}
