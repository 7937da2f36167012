package agency

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	PUT(path string, body any) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	ID(logical string) string
}

// RegisterSteps registers onboarding, client and ranking step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &agencySteps{tc: tc}

	ctx.Step(`^I onboard agency "([^"]*)" with clients "([^"]*)" billing "([^"]*)"$`, steps.onboard)
	ctx.Step(`^I fetch client "([^"]*)"$`, steps.fetchClient)
	ctx.Step(`^I move client "([^"]*)" to agency "([^"]*)"$`, steps.moveClient)
	ctx.Step(`^I set the bill of client "([^"]*)" to (\d+(?:\.\d+)?)$`, steps.setBill)
	ctx.Step(`^I request the top clients$`, steps.topClients)
	ctx.Step(`^the top clients of agency "([^"]*)" should be "([^"]*)"$`, steps.topClientsOf)
	ctx.Step(`^client "([^"]*)" should belong to agency "([^"]*)"$`, steps.clientBelongsTo)
}

type agencySteps struct {
	tc TestContext
}

func (s *agencySteps) agencyName(logical string) string {
	return "Agency " + s.tc.ID(logical)
}

func (s *agencySteps) onboard(ctx context.Context, agencyID, clientIDs, bills string) error {
	ids := splitList(clientIDs)
	amounts := splitList(bills)
	if len(ids) != len(amounts) {
		return fmt.Errorf("%d clients but %d bills", len(ids), len(amounts))
	}

	clients := make([]map[string]any, 0, len(ids))
	for i, id := range ids {
		bill, err := strconv.ParseFloat(amounts[i], 64)
		if err != nil {
			return err
		}
		clients = append(clients, map[string]any{
			"clientId":    s.tc.ID(id),
			"name":        s.tc.ID(id),
			"email":       strings.ToLower(s.tc.ID(id)) + "@example.com",
			"phoneNumber": "555-010-0000",
			"totalBill":   bill,
		})
	}
	return s.tc.POST("/api/agencies/create-with-client", map[string]any{
		"agency": map[string]any{
			"agencyId":    s.tc.ID(agencyID),
			"name":        s.agencyName(agencyID),
			"address1":    "1 Main St",
			"state":       "CA",
			"city":        "Los Angeles",
			"phoneNumber": "555-010-0001",
		},
		"clients": clients,
	})
}

func (s *agencySteps) fetchClient(ctx context.Context, clientID string) error {
	return s.tc.GET("/api/clients/"+s.tc.ID(clientID), nil)
}

func (s *agencySteps) moveClient(ctx context.Context, clientID, agencyID string) error {
	return s.tc.PUT("/api/clients/"+s.tc.ID(clientID), map[string]any{"agencyId": s.tc.ID(agencyID)})
}

func (s *agencySteps) setBill(ctx context.Context, clientID string, bill float64) error {
	return s.tc.PUT("/api/clients/"+s.tc.ID(clientID), map[string]any{"totalBill": bill})
}

func (s *agencySteps) topClients(ctx context.Context) error {
	return s.tc.GET("/api/agencies/top-clients", nil)
}

func (s *agencySteps) topClientsOf(ctx context.Context, agencyID, clientIDs string) error {
	data, err := s.tc.GetResponseField("data")
	if err != nil {
		return err
	}
	rows, ok := data.([]any)
	if !ok {
		return fmt.Errorf("data is not a list")
	}

	var got []string
	for _, row := range rows {
		r, _ := row.(map[string]any)
		if r["agencyName"] == s.agencyName(agencyID) {
			got = append(got, fmt.Sprint(r["clientName"]))
		}
	}
	var want []string
	for _, id := range splitList(clientIDs) {
		want = append(want, s.tc.ID(id))
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected top clients %v for %s, got %v", want, agencyID, got)
	}
	return nil
}

func (s *agencySteps) clientBelongsTo(ctx context.Context, clientID, agencyID string) error {
	if err := s.fetchClient(ctx, clientID); err != nil {
		return err
	}
	got, err := s.tc.GetResponseField("data.agencyId")
	if err != nil {
		return err
	}
	if got != s.tc.ID(agencyID) {
		return fmt.Errorf("expected client %s in agency %s, got %v", clientID, agencyID, got)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
