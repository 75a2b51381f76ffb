package validator

import (
	"errors"
	"net/url"
)

func ValidateWebhookURL(raw string) error {
	if raw == "" {
		return errors.New("webhook_url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid webhook_url format")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("webhook_url must start with http:// or https://")
	}

	if u.Host == "" {
		return errors.New("webhook_url must include a host")
	}

	return nil
}
