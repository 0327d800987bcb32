// internal/infra/secret/secret_manager.go
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var (
	ErrNotConfigured = errors.New("secret: not configured")
	ErrNotFound      = errors.New("secret: not found")
)

// Accessor returns the latest value of a named secret.
type Accessor interface {
	Access(ctx context.Context, secretID string) (string, error)
}

// ManagerAccessor reads secrets from GCP Secret Manager:
// projects/{project}/secrets/{secretID}/versions/latest
type ManagerAccessor struct {
	Client    *secretmanager.Client
	ProjectID string
}

func NewManagerAccessor(ctx context.Context, projectID string) (*ManagerAccessor, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("%w: projectID is empty", ErrNotConfigured)
	}

	c, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	return &ManagerAccessor{Client: c, ProjectID: pid}, nil
}

func (a *ManagerAccessor) Access(ctx context.Context, secretID string) (string, error) {
	if a == nil || a.Client == nil {
		return "", ErrNotConfigured
	}
	id := strings.TrimSpace(secretID)
	if id == "" {
		return "", fmt.Errorf("%w: secret id is empty", ErrNotConfigured)
	}

	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", a.ProjectID, id)
	res, err := a.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("accessing secret %s: %w", name, err)
	}
	if res == nil || res.Payload == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	s := strings.TrimSpace(string(res.Payload.Data))
	if s == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNotFound, name)
	}
	return s, nil
}

func (a *ManagerAccessor) Close() error {
	if a == nil || a.Client == nil {
		return nil
	}
	return a.Client.Close()
}

// StaticAccessor serves secrets from a map (dev mode and tests).
type StaticAccessor map[string]string

func (s StaticAccessor) Access(_ context.Context, secretID string) (string, error) {
	v, ok := s[strings.TrimSpace(secretID)]
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, secretID)
	}
	return strings.TrimSpace(v), nil
}
