package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"carehub/internal/model"
	"carehub/internal/repository"
)

// FamilyHandler exposes household, member and category management.
type FamilyHandler struct {
	families   *repository.FamilyRepository
	categories *repository.CategoryRepository
}

func NewFamilyHandler(families *repository.FamilyRepository, categories *repository.CategoryRepository) *FamilyHandler {
	return &FamilyHandler{families: families, categories: categories}
}

type createFamilyRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *FamilyHandler) Create(c *gin.Context) {
	var req createFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	family := model.Family{Name: req.Name}
	if err := h.families.Create(c.Request.Context(), &family); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, family)
}

func (h *FamilyHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	family, err := h.families.FindByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, family)
}

type addMemberRequest struct {
	Name string     `json:"name" binding:"required"`
	Role model.Role `json:"role"`
}

func (h *FamilyHandler) AddMember(c *gin.Context) {
	familyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if req.Role == "" {
		req.Role = model.RoleMember
	}
	member := model.Member{FamilyID: familyID, Name: req.Name, Role: req.Role}
	if err := h.families.AddMember(c.Request.Context(), &member); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *FamilyHandler) ListCategories(c *gin.Context) {
	familyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	categories, err := h.categories.ListByFamily(c.Request.Context(), familyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, categories)
}

type setTelegramChatRequest struct {
	ChatID *int64 `json:"chatId"`
}

func (h *FamilyHandler) SetTelegramChat(c *gin.Context) {
	familyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req setTelegramChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	if err := h.families.SetTelegramChat(c.Request.Context(), familyID, req.ChatID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
