package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reviewdomain "github.com/smallbiznis/carhouse/internal/review/domain"
)

type listReviewsQuery struct {
	pageQuery
	ProductID string `form:"product_id"`
	Visible   string `form:"visible"`
}

type setVisibilityRequest struct {
	Visible *bool `json:"visible"`
}

func (s *Server) ListReviews(c *gin.Context) {
	var query listReviewsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	visible, err := parseOptionalBool(query.Visible)
	if err != nil {
		AbortWithError(c, newValidationError("visible", "invalid_visible", "invalid visible"))
		return
	}

	resp, err := s.reviewSvc.List(c.Request.Context(), reviewdomain.ListRequest{
		Pagination: query.pagination(),
		ProductID:  strings.TrimSpace(query.ProductID),
		Visible:    visible,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Reviews, "page_info": resp.PageInfo})
}

func (s *Server) GetReview(c *gin.Context) {
	resp, err := s.reviewSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetReviewVisibility(c *gin.Context) {
	var req setVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Visible == nil {
		AbortWithError(c, newValidationError("visible", "invalid_visible", "visible is required"))
		return
	}

	resp, err := s.reviewSvc.SetVisibility(c.Request.Context(), c.Param("id"), *req.Visible)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
