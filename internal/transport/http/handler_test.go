package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"ludendorff/internal/useradmin"
	dErrors "ludendorff/pkg/domain-errors"
	"ludendorff/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	users  *stubUserAdmin
	search *stubSearchSync
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.users = &stubUserAdmin{}
	s.search = &stubSearchSync{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(NewHandler(s.users, s.search, logger))
}

func (s *HandlerSuite) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := testutil.NewRequestWithBody(s.T(), method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req)
}

// =============================================================================
// User Administration
// =============================================================================

func (s *HandlerSuite) TestCreateUser() {
	s.Run("decodes body and forwards the bearer token", func() {
		rec := s.do(http.MethodPost, "/v1/users", "tok-1",
			`{"email":"new@example.com","firstName":"New","lastName":"User","position":"Storekeeper","permissions":[1,2]}`)

		s.Equal(http.StatusNoContent, rec.Code)
		s.Equal("tok-1", s.users.lastToken)
		s.Equal("new@example.com", s.users.lastUser.Email)
		s.Equal([]int{1, 2}, s.users.lastUser.Permissions)
	})

	s.Run("malformed body is a bad request", func() {
		rec := s.do(http.MethodPost, "/v1/users", "tok-1", `{"email":`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing authorization header forwards an empty token", func() {
		rec := s.do(http.MethodPost, "/v1/users", "", `{"email":"x@example.com"}`)
		s.Equal(http.StatusNoContent, rec.Code)
		s.Equal("", s.users.lastToken)
	})
}

func (s *HandlerSuite) TestModifyUser() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/v1/users/u-42", map[string]bool{"disabled": true})
	req.Header.Set("Authorization", "Bearer tok-1")
	rec := testutil.DoRequest(s.router, req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("u-42", s.users.lastUserID)
	s.True(s.users.lastDisabled)
}

func (s *HandlerSuite) TestDeleteUser() {
	rec := s.do(http.MethodDelete, "/v1/users/u-42", "tok-1", "")

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("u-42", s.users.lastUserID)
	s.Equal("tok-1", s.users.lastToken)
}

// =============================================================================
// Error Envelope
// =============================================================================

func (s *HandlerSuite) TestOpaqueErrors() {
	s.Run("forbidden and internal look identical on the wire", func() {
		s.users.err = dErrors.New(dErrors.CodeForbidden, "permission denied")
		forbidden := s.do(http.MethodDelete, "/v1/users/u-42", "tok-1", "")

		s.users.err = dErrors.New(dErrors.CodeInternal, "create user: provider down")
		internal := s.do(http.MethodDelete, "/v1/users/u-42", "tok-1", "")

		s.Equal(http.StatusInternalServerError, forbidden.Code)
		s.Equal(http.StatusInternalServerError, internal.Code)
	})

	s.Run("uncoded errors never leak their message", func() {
		s.users.err = dErrors.Wrap(io.ErrUnexpectedEOF, dErrors.CodeInternal, "update account: upstream failed")
		rec := s.do(http.MethodDelete, "/v1/users/u-42", "tok-1", "")

		envelope := testutil.UnmarshalErrorResponse(s.T(), rec)
		s.Equal("update account: upstream failed", envelope["error"])
		s.NotContains(rec.Body.String(), "unexpected EOF")
	})
}

func (s *HandlerSuite) TestRequestID() {
	s.Run("echoes the caller's id", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-Id", "req-1")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal("req-1", rec.Header().Get("X-Request-Id"))
	})

	s.Run("assigns one when absent", func() {
		rec := s.do(http.MethodGet, "/healthz", "", "")
		s.NotEmpty(rec.Header().Get("X-Request-Id"))
	})
}

// =============================================================================
// Search Sync
// =============================================================================

func (s *HandlerSuite) TestSearchRoutes() {
	cases := []struct {
		path string
		want string
	}{
		{"/v1/search/inventories", "inventory"},
		{"/v1/search/issued", "issued"},
		{"/v1/search/cards", "card"},
	}
	for _, tc := range cases {
		s.Run(tc.path, func() {
			rec := s.do(http.MethodPost, tc.path, "",
				`{"id":"R-1","entries":[{"stockNumber":"ABC123"}]}`)

			s.Equal(http.StatusNoContent, rec.Code)
			s.Equal(tc.want, s.search.lastTarget)
			s.Equal("R-1", s.search.lastID)
			s.Len(s.search.lastEntries, 1)
		})
	}
}

func (s *HandlerSuite) TestHealthAndMetrics() {
	s.Equal(http.StatusNoContent, s.do(http.MethodGet, "/healthz", "", "").Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/metrics", "", "").Code)
}

// =============================================================================
// Stubs
// =============================================================================

type stubUserAdmin struct {
	err          error
	lastToken    string
	lastUser     useradmin.NewUser
	lastUserID   string
	lastDisabled bool
}

func (u *stubUserAdmin) Create(_ context.Context, token string, user useradmin.NewUser) error {
	u.lastToken = token
	u.lastUser = user
	return u.err
}

func (u *stubUserAdmin) Modify(_ context.Context, token, userID string, disabled bool) error {
	u.lastToken = token
	u.lastUserID = userID
	u.lastDisabled = disabled
	return u.err
}

func (u *stubUserAdmin) Delete(_ context.Context, token, userID string) error {
	u.lastToken = token
	u.lastUserID = userID
	return u.err
}

type stubSearchSync struct {
	err         error
	lastTarget  string
	lastID      string
	lastEntries []any
}

func (s *stubSearchSync) IndexInventory(_ context.Context, id string, entries []any) error {
	s.lastTarget, s.lastID, s.lastEntries = "inventory", id, entries
	return s.err
}

func (s *stubSearchSync) IndexIssued(_ context.Context, id string, entries []any) error {
	s.lastTarget, s.lastID, s.lastEntries = "issued", id, entries
	return s.err
}

func (s *stubSearchSync) IndexStockCard(_ context.Context, id string, entries []any) error {
	s.lastTarget, s.lastID, s.lastEntries = "card", id, entries
	return s.err
}
