package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	inventorydomain "github.com/smallbiznis/carhouse/internal/inventory/domain"
)

func (s *Server) ListStores(c *gin.Context) {
	resp, err := s.inventorySvc.ListStores(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateStore(c *gin.Context) {
	var req inventorydomain.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.inventorySvc.CreateStore(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetProductInventory(c *gin.Context) {
	resp, err := s.inventorySvc.ListLevels(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// SyncProductInventory replaces every store level of the product.
func (s *Server) SyncProductInventory(c *gin.Context) {
	var req inventorydomain.SyncLevelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ProductID = c.Param("id")

	resp, err := s.inventorySvc.SyncLevels(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProductInventory(c *gin.Context) {
	var req inventorydomain.UpdateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ProductID = c.Param("id")
	req.StoreID = c.Param("store_id")

	resp, err := s.inventorySvc.UpdateLevel(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
