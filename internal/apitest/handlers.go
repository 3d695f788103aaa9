package apitest

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type userDetail struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  userDetail `json:"user"`
}

type categoryDetail struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type expenseDetail struct {
	ID          string         `json:"id"`
	Amount      float64        `json:"amount"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Date        time.Time      `json:"date"`
	Category    categoryDetail `json:"category"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type incomeDetail struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserDetail(u *User) userDetail {
	return userDetail{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func (s *Server) respondWithToken(c *gin.Context, status int, user *User) {
	token, err := s.generateToken(user.ID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(status, authResponse{Token: token, User: toUserDetail(user)})
}

func (s *Server) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	var user User
	if err := s.db.Where("email = ?", strings.ToLower(req.Email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := verifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	s.respondWithToken(c, http.StatusOK, &user)
}

func (s *Server) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	email := strings.ToLower(req.Email)
	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &User{Email: email, PasswordHash: hash}
	if err := s.db.Create(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.respondWithToken(c, http.StatusCreated, user)
}

func (s *Server) profile(c *gin.Context) {
	s.waitForProfileRelease()
	c.JSON(http.StatusOK, toUserDetail(currentUser(c)))
}

// dateRange applies the start/end query parameters to q on column
func dateRange(c *gin.Context, q *gorm.DB, column string) (*gorm.DB, bool) {
	if start := c.Query("start"); start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start date"})
			return nil, false
		}
		q = q.Where(column+" >= ?", t)
	}
	if end := c.Query("end"); end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end date"})
			return nil, false
		}
		q = q.Where(column+" < ?", t.AddDate(0, 0, 1))
	}
	return q, true
}

func (s *Server) userExpenses(c *gin.Context) ([]Expense, bool) {
	q := s.db.Where("user_id = ?", currentUser(c).ID)
	q, ok := dateRange(c, q, "date")
	if !ok {
		return nil, false
	}
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if kind := c.Query("type"); kind != "" {
		q = q.Where("type = ?", kind)
	}

	var expenses []Expense
	if err := q.Order("date DESC").Find(&expenses).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return expenses, true
}

func (s *Server) userIncomes(c *gin.Context) ([]Income, bool) {
	q := s.db.Where("user_id = ?", currentUser(c).ID)
	q, ok := dateRange(c, q, "date")
	if !ok {
		return nil, false
	}

	var incomes []Income
	if err := q.Order("date DESC").Find(&incomes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}
	return incomes, true
}

func (s *Server) listExpenses(c *gin.Context) {
	expenses, ok := s.userExpenses(c)
	if !ok {
		return
	}

	out := make([]expenseDetail, len(expenses))
	for i, e := range expenses {
		out[i] = expenseDetail{
			ID:          e.ID,
			Amount:      e.Amount,
			Description: e.Description,
			Type:        e.Type,
			Date:        e.Date,
			Category:    categoryDetail{ID: e.Category, Name: e.Category},
			CreatedAt:   e.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listIncomes(c *gin.Context) {
	incomes, ok := s.userIncomes(c)
	if !ok {
		return
	}

	out := make([]incomeDetail, len(incomes))
	for i, inc := range incomes {
		out[i] = incomeDetail{
			ID:          inc.ID,
			Amount:      inc.Amount,
			Source:      inc.Source,
			Description: inc.Description,
			Date:        inc.Date,
			CreatedAt:   inc.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) listCategories(c *gin.Context) {
	var names []string
	err := s.db.Model(&Expense{}).
		Where("user_id = ?", currentUser(c).ID).
		Distinct().
		Pluck("category", &names).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	sort.Strings(names)

	out := make([]categoryDetail, len(names))
	for i, name := range names {
		out[i] = categoryDetail{ID: name, Name: name}
	}
	c.JSON(http.StatusOK, out)
}

type summary struct {
	TotalIncome        float64            `json:"totalIncome"`
	TotalExpenses      float64            `json:"totalExpenses"`
	Balance            float64            `json:"balance"`
	ExpensesByCategory map[string]float64 `json:"expensesByCategory"`
}

func (s *Server) summarize(c *gin.Context) (*summary, bool) {
	expenses, ok := s.userExpenses(c)
	if !ok {
		return nil, false
	}
	incomes, ok := s.userIncomes(c)
	if !ok {
		return nil, false
	}

	sum := &summary{ExpensesByCategory: map[string]float64{}}
	for _, e := range expenses {
		sum.TotalExpenses += e.Amount
		sum.ExpensesByCategory[e.Category] += e.Amount
	}
	for _, inc := range incomes {
		sum.TotalIncome += inc.Amount
	}
	sum.Balance = sum.TotalIncome - sum.TotalExpenses
	return sum, true
}

func (s *Server) monthlySummary(c *gin.Context) {
	sum, ok := s.summarize(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) summaryAlerts(c *gin.Context) {
	sum, ok := s.summarize(c)
	if !ok {
		return
	}
	if sum.TotalExpenses > sum.TotalIncome {
		c.JSON(http.StatusOK, gin.H{"alert": true, "message": "Your expenses exceed your income for this period"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": false, "message": ""})
}
