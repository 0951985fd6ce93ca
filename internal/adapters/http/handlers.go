package httpadapter

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"scorify/internal/apperror"
	"scorify/internal/auth"
	"scorify/internal/services/accounts"
	"scorify/internal/services/customers"
	"scorify/internal/services/reports"
)

var errBadBody = apperror.New(apperror.KindInvalid, "http.decode", "Invalid request body", nil)

// queryString binds an optional form parameter, falling back to def.
func queryString(r *http.Request, name, def string) string {
	var v string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil || v == "" {
		return def
	}
	return v
}

// queryInt binds an optional integer parameter. Malformed values yield def.
func queryInt(r *http.Request, name string, def int) int {
	var v int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil || v == 0 {
		return def
	}
	return v
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

// reportFilter builds the report scope. owner is the requested sales id,
// which only admins may choose.
func reportFilter(r *http.Request, owner string) reports.Filter {
	return reports.Filter{
		Year:    queryInt(r, "year", 0),
		OwnerID: auth.ScopeOwner(identity(r), owner),
		Status:  reports.ParseStatus(queryString(r, "status", "")),
	}
}

func requestedSales(r *http.Request) string {
	return queryString(r, "sales", queryString(r, "salesId", ""))
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string        `json:"message"`
	User    accounts.User `json:"user"`
	Token   string        `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		s.fail(w, r, apperror.New(apperror.KindInvalid, "http.login", "Email and password are required", nil))
		return
	}
	u, token, err := s.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", User: u, Token: token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.Me(r.Context(), identity(r).ID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]accounts.User{"user": u})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req accounts.Registration
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	u, err := s.accounts.Register(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]accounts.User{"user": u})
}

func (s *Server) handleSalesMonthly(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	buckets, err := s.reports.Monthly(r.Context(), reportFilter(r, requestedSales(r)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	sum, err := s.reports.Summary(r.Context(), reportFilter(r, requestedSales(r)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleAdminMonthly(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	buckets, err := s.reports.Monthly(r.Context(), reportFilter(r, requestedSales(r)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][12]reports.MonthlyBucket{"data": buckets})
}

func (s *Server) handleAdminSummary(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	sum, err := s.reports.Summary(r.Context(), reportFilter(r, requestedSales(r)))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleAdminSales(w http.ResponseWriter, r *http.Request) {
	noStore(w)
	sales, err := s.accounts.ListSales(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]accounts.User{"sales": sales})
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.customers.DashboardStats(r.Context(), identity(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.customers.AdminStats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func customerQuery(r *http.Request) customers.Query {
	return customers.Query{
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", customers.DefaultLimit),
		Search: queryString(r, "search", ""),
		Band:   queryString(r, "filter", customers.BandAll),
	}
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	page, err := s.customers.List(r.Context(), customerQuery(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	d, err := s.customers.CustomerDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleExportCSV buffers the export so a failed query still gets a JSON
// error instead of a truncated file.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.customers.ExportCSV(r.Context(), &buf, customerQuery(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	name := "scorify_export_" + s.now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
