package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"splitfree/ledger"
	"splitfree/models"
	"splitfree/utils"
)

// GET /api/pool/people
func (h *Handler) GetPeople(c *gin.Context) {
	people, err := h.pool.ListPeople(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, people)
}

// POST /api/pool/people
func (h *Handler) CreatePerson(c *gin.Context) {
	var req models.CreatePersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	person, err := h.pool.AddPerson(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, person)
}

// GET /api/pool/expenses
func (h *Handler) GetExpenses(c *gin.Context) {
	expenses, err := h.pool.ListExpenses(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

// POST /api/pool/expenses
func (h *Handler) CreateExpense(c *gin.Context) {
	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	expense, err := h.pool.AddExpense(c.Request.Context(), ledger.AddExpenseInput{
		Description:  req.Description,
		Amount:       req.Amount,
		PayerID:      req.PayerID,
		Participants: req.Participants,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, expense)
}
