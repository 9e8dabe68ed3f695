package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	servicetypedomain "github.com/smallbiznis/carhouse/internal/servicetype/domain"
)

func (s *Server) ListServiceTypes(c *gin.Context) {
	activeOnly, err := parseOptionalBool(c.Query("active"))
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.serviceTypeSvc.List(c.Request.Context(), servicetypedomain.ListRequest{
		ActiveOnly: activeOnly != nil && *activeOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateServiceType(c *gin.Context) {
	var req servicetypedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.serviceTypeSvc.Create(c.Request.Context(), req)
	if err != nil {
		if resp != nil && errors.Is(err, servicetypedomain.ErrPartsSyncFailed) {
			respondSaved(c, resp, err)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetServiceType(c *gin.Context) {
	resp, err := s.serviceTypeSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateServiceType(c *gin.Context) {
	var req servicetypedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.serviceTypeSvc.Update(c.Request.Context(), req)
	if err != nil {
		if resp != nil && errors.Is(err, servicetypedomain.ErrPartsSyncFailed) {
			respondSaved(c, resp, err)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteServiceType(c *gin.Context) {
	if err := s.serviceTypeSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) SetServiceTypeActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "active is required"))
		return
	}

	resp, err := s.serviceTypeSvc.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListServiceTypeParts(c *gin.Context) {
	resp, err := s.serviceTypeSvc.ListParts(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// SyncServiceTypeParts replaces the bundled parts. On partial failure the
// counts already applied are returned alongside the error.
func (s *Server) SyncServiceTypeParts(c *gin.Context) {
	var req servicetypedomain.SyncPartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ServiceTypeID = c.Param("id")

	resp, err := s.serviceTypeSvc.SyncParts(c.Request.Context(), req)
	if err != nil {
		if resp != nil && errors.Is(err, servicetypedomain.ErrPartsSyncFailed) {
			respondSaved(c, resp, err)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
