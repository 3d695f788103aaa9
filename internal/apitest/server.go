// Package apitest runs an in-process fake of the finance API for tests.
//
// It speaks the same HTTP contract as the real service (JSON bodies, {"error": msg} on failure,
// bearer-token auth on everything except login and signup) and records every request so tests
// can assert on the headers the CLI sent.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Request is a request observed by the fake API
type Request struct {
	Method        string
	Path          string
	Authorization string
}

// Server is a running fake finance API
type Server struct {
	URL string

	db       *gorm.DB
	router   *gin.Engine
	http     *httptest.Server
	tokenTTL time.Duration

	mu          sync.Mutex
	jwtSecret   []byte
	requests    []Request
	profileHold chan struct{}
	profileSeen chan struct{}
}

// New starts a fake API backed by an in-memory SQLite database.
// It is shut down when the test finishes.
func New(t testing.TB) *Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	// Every pooled connection would get its own empty :memory: database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := autoMigrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	s := &Server{
		db:        db,
		tokenTTL:  time.Hour,
		jwtSecret: []byte(ulid.Make().String()),
	}
	s.setupRouter()

	s.http = httptest.NewServer(s.router)
	s.URL = s.http.URL

	t.Cleanup(func() {
		s.http.Close()
		_ = sqlDB.Close()
	})

	return s
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.TestMode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(s.recordMiddleware())

	// Public auth endpoints (no auth required)
	s.router.POST("/api/auth/login", s.login)
	s.router.POST("/api/auth/signup", s.signup)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(s.jwtAuthMiddleware())
	{
		api.GET("/user/profile", s.profile)
		api.GET("/expenses", s.listExpenses)
		api.GET("/incomes", s.listIncomes)
		api.GET("/categories", s.listCategories)
		api.GET("/summary/monthly", s.monthlySummary)
		api.GET("/summary/alerts", s.summaryAlerts)
	}
}

func (s *Server) secret() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jwtSecret
}

// Client returns an HTTP client for the fake API
func (s *Server) Client() *http.Client {
	return s.http.Client()
}

// CreateUser registers an account directly in the database
func (s *Server) CreateUser(t testing.TB, email, password string) *User {
	t.Helper()

	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("%v", err)
	}
	user := &User{Email: strings.ToLower(email), PasswordHash: hash}
	if err := s.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// TokenFor issues a valid token for an existing user
func (s *Server) TokenFor(t testing.TB, email string) string {
	t.Helper()

	var user User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		t.Fatalf("failed to find user %s: %v", email, err)
	}
	token, err := s.generateToken(user.ID, user.Email)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// RevokeTokens rotates the signing key so every token issued so far is rejected with 401
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jwtSecret = []byte(ulid.Make().String())
}

// AddExpense stores an expense for the user with the given email
func (s *Server) AddExpense(t testing.TB, email string, expense Expense) *Expense {
	t.Helper()
	expense.UserID = s.userID(t, email)
	if err := s.db.Create(&expense).Error; err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}
	return &expense
}

// AddIncome stores an income for the user with the given email
func (s *Server) AddIncome(t testing.TB, email string, income Income) *Income {
	t.Helper()
	income.UserID = s.userID(t, email)
	if err := s.db.Create(&income).Error; err != nil {
		t.Fatalf("failed to create income: %v", err)
	}
	return &income
}

func (s *Server) userID(t testing.TB, email string) string {
	t.Helper()
	var user User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		t.Fatalf("failed to find user %s: %v", email, err)
	}
	return user.ID
}

// Requests returns every request received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit path
func (s *Server) Count(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// HoldProfile makes profile requests block until release is called.
// The returned channel receives once per profile request that started waiting.
func (s *Server) HoldProfile() (started <-chan struct{}, release func()) {
	hold := make(chan struct{})
	seen := make(chan struct{}, 8)

	s.mu.Lock()
	s.profileHold = hold
	s.profileSeen = seen
	s.mu.Unlock()

	var once sync.Once
	return seen, func() {
		once.Do(func() { close(hold) })
	}
}

func (s *Server) waitForProfileRelease() {
	s.mu.Lock()
	hold, seen := s.profileHold, s.profileSeen
	s.mu.Unlock()

	if hold == nil {
		return
	}
	select {
	case seen <- struct{}{}:
	default:
	}
	<-hold
}
