package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/schema"
)

const kafkaCredentialsPath = "/babamul/kafka-credentials"

// Signup registers an account. An activation code is sent to email.
func (c *Client) Signup(ctx context.Context, email string) (Response, error) {
	var out Response
	err := c.do(ctx, call{
		op:     "signup",
		method: http.MethodPost,
		path:   "/babamul/signup",
		body:   map[string]string{"email": email},
		noAuth: true,
	}, &out)
	return out, err
}

// Activate confirms an account with its activation code.
func (c *Client) Activate(ctx context.Context, email, activationCode string) (Response, error) {
	var out Response
	err := c.do(ctx, call{
		op:     "activate",
		method: http.MethodPost,
		path:   "/babamul/activate",
		body:   map[string]string{"email": email, "activation_code": activationCode},
		noAuth: true,
	}, &out)
	return out, err
}

// Login exchanges credentials for an access token, which the client keeps
// for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out Response
	err := c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/babamul/auth",
		form:   url.Values{"email": {email}, "password": {password}},
		noAuth: true,
	}, &out)
	if err != nil {
		return "", err
	}

	token, _ := out["access_token"].(string)
	if token == "" {
		return "", &domain.APIError{
			StatusCode: http.StatusUnauthorized,
			Message:    "login response carried no access token",
			Path:       "/babamul/auth",
		}
	}
	c.SetToken(token)
	c.logger.Info().Msg("authenticated with Babamul API")
	return token, nil
}

// Profile returns the authenticated account.
func (c *Client) Profile(ctx context.Context) (*domain.UserProfile, error) {
	var out any
	if err := c.do(ctx, call{op: "profile", method: http.MethodGet, path: "/babamul/profile"}, &out); err != nil {
		return nil, err
	}
	rec, err := payloadRecord("profile", out)
	if err != nil {
		return nil, err
	}
	p := &domain.UserProfile{}
	if err := schema.Bind("profile", rec, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateKafkaCredential creates a broker credential. Its password is only
// returned here.
func (c *Client) CreateKafkaCredential(ctx context.Context, name string) (*domain.KafkaCredential, error) {
	var out any
	err := c.do(ctx, call{
		op:     "create_kafka_credential",
		method: http.MethodPost,
		path:   kafkaCredentialsPath,
		body:   map[string]string{"name": name},
	}, &out)
	if err != nil {
		return nil, err
	}

	raw := payload(out)
	if m, ok := out.(map[string]any); ok && m["credential"] != nil {
		raw = m["credential"]
	}
	rec, err := schema.AsRecord("credential", raw)
	if err != nil {
		return nil, err
	}
	cred := &domain.KafkaCredential{}
	if err := schema.Bind("credential", rec, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// ListKafkaCredentials returns the account's broker credentials.
func (c *Client) ListKafkaCredentials(ctx context.Context) ([]domain.KafkaCredential, error) {
	var out any
	if err := c.do(ctx, call{op: "list_kafka_credentials", method: http.MethodGet, path: kafkaCredentialsPath}, &out); err != nil {
		return nil, err
	}

	list, ok := payload(out).([]any)
	if !ok {
		return []domain.KafkaCredential{}, nil
	}
	creds := make([]domain.KafkaCredential, len(list))
	for i, item := range list {
		path := schema.Index("credentials", i)
		rec, err := schema.AsRecord(path, item)
		if err != nil {
			return nil, err
		}
		if err := schema.Bind(path, rec, &creds[i]); err != nil {
			return nil, err
		}
	}
	return creds, nil
}

// DeleteKafkaCredential deletes a broker credential and reports whether it was removed.
func (c *Client) DeleteKafkaCredential(ctx context.Context, id string) (bool, error) {
	var out Response
	err := c.do(ctx, call{
		op:     "delete_kafka_credential",
		method: http.MethodDelete,
		path:   kafkaCredentialsPath + "/" + url.PathEscape(id),
	}, &out)
	if err != nil {
		return false, err
	}
	deleted, _ := out["deleted"].(bool)
	return deleted, nil
}
