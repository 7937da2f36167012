package auth

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetResponseField(field string) (any, error)
	LastStatus() int
	ID(logical string) string
	SetAccessToken(token string)
}

// RegisterSteps registers authentication-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &authSteps{tc: tc}

	ctx.Step(`^I register as "([^"]*)" with password "([^"]*)"$`, steps.register)
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I save the access token$`, steps.saveAccessToken)
	ctx.Step(`^I am logged in$`, steps.loggedIn)
}

type authSteps struct {
	tc TestContext
}

// email makes the user unique per scenario so reruns never hit "already exists".
func (s *authSteps) email(user string) string {
	return s.tc.ID(user) + "@example.com"
}

func (s *authSteps) register(ctx context.Context, user, password string) error {
	return s.tc.POST("/api/auth/register", map[string]any{
		"username": user,
		"email":    s.email(user),
		"password": password,
	})
}

func (s *authSteps) login(ctx context.Context, user, password string) error {
	return s.tc.POST("/api/auth/login", map[string]any{
		"email":    s.email(user),
		"password": password,
	})
}

func (s *authSteps) saveAccessToken(ctx context.Context) error {
	token, err := s.tc.GetResponseField("data.token")
	if err != nil {
		return err
	}
	s.tc.SetAccessToken(token.(string))
	return nil
}

func (s *authSteps) loggedIn(ctx context.Context) error {
	if err := s.register(ctx, "tester", "secret123"); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("register returned %d", s.tc.LastStatus())
	}
	if err := s.login(ctx, "tester", "secret123"); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("login returned %d", s.tc.LastStatus())
	}
	return s.saveAccessToken(ctx)
}
