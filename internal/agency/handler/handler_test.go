package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"agencyhub/internal/agency/handler/mocks"
	"agencyhub/internal/agency/models"
	jwttoken "agencyhub/internal/jwt_token"
	dErrors "agencyhub/pkg/domain-errors"
	authmw "agencyhub/pkg/platform/middleware/auth"
	"agencyhub/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/agency-mocks.go -package=mocks Service
type AgencyHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	jwt     *jwttoken.JWTService
	router  chi.Router
	token   string
}

func TestAgencyHandlerSuite(t *testing.T) {
	suite.Run(t, new(AgencyHandlerSuite))
}

func (s *AgencyHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.jwt = jwttoken.NewJWTService("test-signing-key", "agencyhub", time.Hour)

	token, err := s.jwt.GenerateAccessToken(uuid.New(), "jane@example.com")
	s.Require().NoError(err)
	s.token = token

	h := New(s.service, logger)
	s.router = chi.NewRouter()
	s.router.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(s.jwt, nil), logger))
		r.Route("/agencies", h.RegisterAgencies)
		r.Route("/clients", h.RegisterClients)
	})
}

type envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    json.RawMessage      `json:"data"`
	Errors  []dErrors.FieldError `json:"errors"`
	Error   string               `json:"error"`
}

func (s *AgencyHandlerSuite) do(req *http.Request) (int, envelope) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	rr := testutil.DoRequest(s.router, req)
	env := testutil.UnmarshalResponse[envelope](s.T(), rr)
	return rr.Code, *env
}

func onboardBody() map[string]any {
	return map[string]any{
		"agency": map[string]any{
			"agencyId": "A1", "name": "Acme", "address1": "1 Main St",
			"state": "CA", "city": "LA", "phoneNumber": "555-123-4567",
		},
		"clients": []map[string]any{
			{"clientId": "C1", "name": "Bob", "email": " BOB@Example.com ", "phoneNumber": "5551234567", "totalBill": 100},
			{"clientId": "C2", "name": "Eve", "email": "eve@example.com", "phoneNumber": "5551234567", "totalBill": 300},
		},
	}
}

func (s *AgencyHandlerSuite) TestAuthGate() {
	routes := []struct{ method, path string }{
		{http.MethodPost, "/agencies/create-with-client"},
		{http.MethodGet, "/agencies/top-clients"},
		{http.MethodGet, "/clients"},
		{http.MethodGet, "/clients/C1"},
		{http.MethodPut, "/clients/C1"},
	}
	expired := jwttoken.NewJWTService("test-signing-key", "agencyhub", -time.Minute)
	expiredToken, err := expired.GenerateAccessToken(uuid.New(), "jane@example.com")
	s.Require().NoError(err)

	headers := map[string]string{
		"missing":   "",
		"malformed": "Bearer not-a-jwt",
		"expired":   "Bearer " + expiredToken,
		"scheme":    "Token " + s.token,
	}
	for _, rt := range routes {
		for name, header := range headers {
			s.Run(rt.method+" "+rt.path+" "+name, func() {
				req := testutil.NewJSONRequest(s.T(), rt.method, rt.path, onboardBody())
				if header != "" {
					req.Header.Set("Authorization", header)
				}
				rr := testutil.DoRequest(s.router, req)
				s.Equal(http.StatusUnauthorized, rr.Code)
				env := testutil.UnmarshalResponse[envelope](s.T(), rr)
				s.False(env.Success)
			})
		}
	}
	// No EXPECT calls were registered: the mock controller fails the test
	// if any request reached the service.
}

func (s *AgencyHandlerSuite) TestOnboard() {
	s.Run("201 with normalized input and summary message", func() {
		s.service.EXPECT().Onboard(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, agency models.AgencyInput, clients []models.ClientInput) (*models.OnboardResult, error) {
				s.Equal("A1", agency.AgencyID)
				s.Require().Len(clients, 2)
				s.Equal("bob@example.com", clients[0].Email)
				return &models.OnboardResult{
					Agency:  agency.ToAgency(time.Now()),
					Summary: models.Summary{TotalClients: 2, TotalBusinessValue: 400, AverageClientValue: 200},
				}, nil
			})

		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/agencies/create-with-client", onboardBody()))
		s.Equal(http.StatusCreated, code)
		s.True(env.Success)
		s.Equal("Agency and 2 clients created successfully", env.Message)
		var res models.OnboardResult
		s.Require().NoError(json.Unmarshal(env.Data, &res))
		s.Equal(400.0, res.Summary.TotalBusinessValue)
	})

	s.Run("single client form is accepted", func() {
		body := onboardBody()
		clients := body["clients"].([]map[string]any)
		delete(body, "clients")
		body["client"] = clients[0]

		s.service.EXPECT().Onboard(gomock.Any(), gomock.Any(), gomock.Len(1)).
			Return(&models.OnboardResult{Summary: models.Summary{TotalClients: 1}}, nil)

		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/agencies/create-with-client", body))
		s.Equal(http.StatusCreated, code)
		s.Equal("Agency and 1 clients created successfully", env.Message)
	})

	s.Run("400 with itemized field errors and no service call", func() {
		body := onboardBody()
		body["clients"].([]map[string]any)[1]["email"] = "not-an-email"
		body["clients"].([]map[string]any)[1]["totalBill"] = -5

		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/agencies/create-with-client", body))
		s.Equal(http.StatusBadRequest, code)
		s.False(env.Success)
		fields := map[string]string{}
		for _, fe := range env.Errors {
			fields[fe.Field] = fe.Message
		}
		s.Equal("Valid client email is required", fields["clients[1].email"])
		s.Equal("Client total bill must be a positive number", fields["clients[1].totalBill"])
	})

	s.Run("400 when no clients are supplied", func() {
		body := onboardBody()
		delete(body, "clients")

		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/agencies/create-with-client", body))
		s.Equal(http.StatusBadRequest, code)
		s.NotEmpty(env.Errors)
	})

	s.Run("400 on malformed json", func() {
		code, env := s.do(testutil.NewRequestWithBody(s.T(), http.MethodPost, "/agencies/create-with-client", "{"))
		s.Equal(http.StatusBadRequest, code)
		s.Equal("Invalid request body", env.Message)
	})

	s.Run("409 on conflict", func() {
		s.service.EXPECT().Onboard(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "Agency with this ID already exists"))

		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/agencies/create-with-client", onboardBody()))
		s.Equal(http.StatusConflict, code)
		s.Equal("Agency with this ID already exists", env.Message)
	})

	s.Run("500 keeps the operation message and hides the cause", func() {
		s.service.EXPECT().Onboard(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("connection reset by peer"), dErrors.CodeInternal, "Failed to create agency and clients"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/agencies/create-with-client", onboardBody())
		req.Header.Set("Authorization", "Bearer "+s.token)
		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.NotContains(rr.Body.String(), "connection reset")
		s.Contains(rr.Body.String(), "Failed to create agency and clients")
	})
}

func (s *AgencyHandlerSuite) TestTopClients() {
	s.service.EXPECT().TopClientsPerAgency(gomock.Any()).Return([]models.TopClient{
		{AgencyName: "Acme", ClientName: "Eve", TotalBill: 300},
	}, nil)

	code, env := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/agencies/top-clients"))
	s.Equal(http.StatusOK, code)
	s.Equal("Top clients retrieved successfully", env.Message)
	s.JSONEq(`[{"agencyName":"Acme","clientName":"Eve","totalBill":300}]`, string(env.Data))
}

func (s *AgencyHandlerSuite) TestClients() {
	s.Run("list", func() {
		s.service.EXPECT().ListClients(gomock.Any()).Return([]*models.Client{{ClientID: "C2"}, {ClientID: "C1"}}, nil)

		code, env := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/clients"))
		s.Equal(http.StatusOK, code)
		var clients []models.Client
		s.Require().NoError(json.Unmarshal(env.Data, &clients))
		s.Equal([]string{"C2", "C1"}, []string{clients[0].ClientID, clients[1].ClientID})
	})

	s.Run("empty list encodes as an array", func() {
		s.service.EXPECT().ListClients(gomock.Any()).Return([]*models.Client{}, nil)

		code, env := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/clients"))
		s.Equal(http.StatusOK, code)
		s.JSONEq(`[]`, string(env.Data))
	})

	s.Run("get", func() {
		s.service.EXPECT().GetClient(gomock.Any(), "C1").Return(&models.Client{ClientID: "C1", AgencyID: "A1"}, nil)

		code, env := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/clients/C1"))
		s.Equal(http.StatusOK, code)
		var client models.Client
		s.Require().NoError(json.Unmarshal(env.Data, &client))
		s.Equal("A1", client.AgencyID)
	})

	s.Run("get missing", func() {
		s.service.EXPECT().GetClient(gomock.Any(), "nope").Return(nil, dErrors.New(dErrors.CodeNotFound, "Client not found"))

		code, env := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/clients/nope"))
		s.Equal(http.StatusNotFound, code)
		s.Equal("Client not found", env.Message)
	})
}

func (s *AgencyHandlerSuite) TestUpdateClient() {
	s.Run("passes only supplied fields", func() {
		name := "Robert"
		s.service.EXPECT().UpdateClient(gomock.Any(), "C1", models.ClientPatch{Name: &name}).
			Return(&models.Client{ClientID: "C1", Name: "Robert"}, nil)

		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/clients/C1", map[string]any{"name": "  Robert "}))
		s.Equal(http.StatusOK, code)
		s.Equal("Client updated successfully", env.Message)
	})

	s.Run("rejects a changed client id", func() {
		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/clients/C1", map[string]any{"clientId": "C9"}))
		s.Equal(http.StatusBadRequest, code)
		s.Require().Len(env.Errors, 1)
		s.Equal("clientId", env.Errors[0].Field)
	})

	s.Run("rejects a negative bill", func() {
		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/clients/C1", map[string]any{"totalBill": -1}))
		s.Equal(http.StatusBadRequest, code)
		s.Require().Len(env.Errors, 1)
		s.Equal("totalBill", env.Errors[0].Field)
	})

	s.Run("404 for unknown agency", func() {
		s.service.EXPECT().UpdateClient(gomock.Any(), "C1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Agency not found"))

		code, env := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/clients/C1", map[string]any{"agencyId": "ZZ"}))
		s.Equal(http.StatusNotFound, code)
		s.Equal("Agency not found", env.Message)
	})
}
