package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/voxmarket/voxmarket-api/config"
	"github.com/voxmarket/voxmarket-api/middleware"
	"github.com/voxmarket/voxmarket-api/models"
	"github.com/voxmarket/voxmarket-api/services"
)

// CreateUserRequest represents the request body for creating a profile
type CreateUserRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name"`
}

// CreateUser handles POST /api/v1/users - creates the actor profile for the
// authenticated Auth0 subject.
func CreateUser(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user ID from token",
			},
		})
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	user := models.User{
		Auth0ID:     auth0ID,
		Name:        req.Name,
		Email:       req.Email,
		Role:        "actor",
		DisplayName: req.DisplayName,
	}

	db := config.GetDB()
	if err := db.Create(&user).Error; err != nil {
		// Check for duplicate Auth0ID or email (works with both PostgreSQL and SQLite)
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") ||
			strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_EXISTS",
					"message": "A user with this Auth0 ID or email already exists",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to create user"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    user,
	})
}

// GetMe handles GET /api/v1/users/me - returns the authenticated profile.
func GetMe(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// UpdateMeRequest represents the request body for updating a profile. The
// revision allowance only affects orders created after the change.
type UpdateMeRequest struct {
	DisplayName       *string `json:"display_name"`
	RevisionsAllowed  *int    `json:"revisions_allowed" binding:"omitempty,gte=0"`
	BankName          *string `json:"bank_name"`
	BankAccountName   *string `json:"bank_account_name"`
	BankAccountNumber *string `json:"bank_account_number"`
}

// UpdateMe handles PATCH /api/v1/users/me
func UpdateMe(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.RevisionsAllowed != nil {
		updates["revisions_allowed"] = *req.RevisionsAllowed
	}
	if req.BankName != nil {
		updates["bank_name"] = *req.BankName
	}
	if req.BankAccountName != nil {
		updates["bank_account_name"] = *req.BankAccountName
	}
	if req.BankAccountNumber != nil {
		updates["bank_account_number"] = *req.BankAccountNumber
	}

	if len(updates) > 0 {
		if err := config.GetDB().Model(user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to update user"))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    user,
	})
}

// GetEligibility handles GET /api/v1/actor/eligibility - where the actor
// stands on direct-to-actor payment.
func GetEligibility(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	db := config.GetDB()
	status, err := services.ActorEligibility(db, user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to evaluate eligibility"))
		return
	}

	completed, avg, err := services.ActorStats(db, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to load actor stats"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status":           status,
			"completed_orders": completed,
			"average_rating":   avg,
		},
	})
}

// RequestDirectPayment handles POST /api/v1/actor/eligibility/request - the
// actor's one-way request for direct payment. Only an admin can enable it.
func RequestDirectPayment(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "User profile not found. Please create a profile first."))
		return
	}

	status, err := services.RequestDirectPayment(config.GetDB(), user)
	if err != nil {
		if status != "" {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_ELIGIBLE",
					"message": "You are not currently eligible to request direct payment",
					"status":  status,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to record the request"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"status": status,
		},
	})
}

// EnableDirectPayment handles POST /api/v1/admin/actors/:id/enable-direct-payment
func EnableDirectPayment(c *gin.Context) {
	actorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", "Actor ID must be numeric"))
		return
	}

	db := config.GetDB()
	var actor models.User
	if err := db.First(&actor, actorID).Error; err != nil {
		c.JSON(http.StatusNotFound, errorBody("USER_NOT_FOUND", "Actor not found"))
		return
	}

	if err := db.Model(&actor).Update("direct_payment_enabled", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorBody("DATABASE_ERROR", "Failed to enable direct payment"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    actor,
	})
}
