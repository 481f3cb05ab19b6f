package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"ordersvc/internal/apperrors"
)

// User is the identity record resolved from the users service.
type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IdentityClient resolves a bearer credential to the caller's durable user
// identity.
type IdentityClient interface {
	ResolveCaller(ctx context.Context, bearerToken string) (*User, error)
}

// HTTPIdentityClient calls the users service over HTTP.
type HTTPIdentityClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPIdentityClient creates an identity client for the given base URL.
// The timeout bounds connect, write and read of each call.
func NewHTTPIdentityClient(baseURL string, timeout time.Duration) *HTTPIdentityClient {
	return &HTTPIdentityClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ResolveCaller fetches the current user for the credential. A 4xx from the
// users service means the credential is unusable; anything else that goes
// wrong is a dependency failure, never an indefinite hang.
func (c *HTTPIdentityClient) ResolveCaller(ctx context.Context, bearerToken string) (*User, error) {
	if strings.TrimSpace(bearerToken) == "" {
		return nil, fmt.Errorf("%w: missing bearer credential", apperrors.ErrUnauthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build users request: %w", err)
	}
	req.Header.Set("Authorization", ensureBearer(bearerToken))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: users service: %v", apperrors.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var user User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, fmt.Errorf("%w: users service: decode response: %v", apperrors.ErrDependencyUnavailable, err)
		}
		if user.ID == 0 {
			return nil, fmt.Errorf("%w: users service returned no usable user id", apperrors.ErrUnauthenticated)
		}
		return &user, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		log.Printf("Users service rejected credential with status %d", resp.StatusCode)
		return nil, fmt.Errorf("%w: credential rejected by users service", apperrors.ErrUnauthenticated)
	default:
		return nil, fmt.Errorf("%w: users service returned status %d", apperrors.ErrDependencyUnavailable, resp.StatusCode)
	}
}

// ensureBearer normalizes a credential to the "Bearer <token>" header form.
func ensureBearer(token string) string {
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}
