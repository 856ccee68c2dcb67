package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	locationapp "github.com/localcooks/backend/internal/application/location"
)

// LocationHandler handles location management and discovery endpoints
type LocationHandler struct {
	BaseHandler
	locationService *locationapp.LocationService
}

// NewLocationHandler creates a new LocationHandler
func NewLocationHandler(locationService *locationapp.LocationService) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
	}
}

// Create godoc
// @Summary      Create a location
// @Description  Create a kitchen location owned by the authenticated manager
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        request body locationapp.CreateLocationRequest true "Location data"
// @Success      201 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations [post]
func (h *LocationHandler) Create(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req locationapp.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loc, err := h.locationService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, loc)
}

// GetByID godoc
// @Summary      Get location by ID
// @Description  Retrieve an owned location, including unpublished ones
// @Tags         locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id} [get]
func (h *LocationHandler) GetByID(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	loc, err := h.locationService.Get(c.Request.Context(), actor, locationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}

// List godoc
// @Summary      List own locations
// @Description  Retrieve all locations owned by the authenticated manager
// @Tags         locations
// @Produce      json
// @Success      200 {object} dto.Response{data=[]locationapp.LocationResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations [get]
func (h *LocationHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locations, err := h.locationService.ListByManager(c.Request.Context(), userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, locations)
}

// Update godoc
// @Summary      Update a location
// @Description  Update fields of an owned location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Param        request body locationapp.UpdateLocationRequest true "Fields to update"
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id} [patch]
func (h *LocationHandler) Update(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	var req locationapp.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loc, err := h.locationService.Update(c.Request.Context(), actor, locationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}

// Delete godoc
// @Summary      Delete a location
// @Description  Delete an owned location with no active bookings
// @Tags         locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id} [delete]
func (h *LocationHandler) Delete(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	if err := h.locationService.Delete(c.Request.Context(), actor, locationID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Publish godoc
// @Summary      Publish a location
// @Description  Make a location visible to chefs for booking
// @Tags         locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id}/publish [post]
func (h *LocationHandler) Publish(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	loc, err := h.locationService.Publish(c.Request.Context(), actor, locationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}

// Unpublish godoc
// @Summary      Unpublish a location
// @Description  Hide a location from chefs; existing bookings are unaffected
// @Tags         locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id}/unpublish [post]
func (h *LocationHandler) Unpublish(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	loc, err := h.locationService.Unpublish(c.Request.Context(), actor, locationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}

// GetRequirements godoc
// @Summary      Get document requirements
// @Description  Retrieve the document requirements applicants must satisfy
// @Tags         locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]locationapp.RequirementResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id}/requirements [get]
func (h *LocationHandler) GetRequirements(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	requirements, err := h.locationService.GetRequirements(c.Request.Context(), actor, locationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, requirements)
}

// ReplaceRequirements godoc
// @Summary      Replace document requirements
// @Description  Replace the full requirement list for a location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Param        request body locationapp.ReplaceRequirementsRequest true "Requirement list"
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id}/requirements [put]
func (h *LocationHandler) ReplaceRequirements(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	var req locationapp.ReplaceRequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loc, err := h.locationService.ReplaceRequirements(c.Request.Context(), actor, locationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}

// AddEquipment godoc
// @Summary      Add equipment
// @Description  Add a bookable equipment item to a location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Param        request body locationapp.EquipmentRequest true "Equipment data"
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id}/equipment [post]
func (h *LocationHandler) AddEquipment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	var req locationapp.EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loc, err := h.locationService.AddEquipment(c.Request.Context(), actor, locationID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}

// UpdateEquipment godoc
// @Summary      Update equipment
// @Description  Update an equipment item on a location
// @Tags         locations
// @Accept       json
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Param        item_id path string true "Equipment item ID" format(uuid)
// @Param        request body locationapp.EquipmentRequest true "Equipment data"
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id}/equipment/{item_id} [put]
func (h *LocationHandler) UpdateEquipment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid equipment item ID format")
		return
	}

	var req locationapp.EquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loc, err := h.locationService.UpdateEquipment(c.Request.Context(), actor, locationID, itemID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}

// RemoveEquipment godoc
// @Summary      Remove equipment
// @Description  Remove an equipment item from a location
// @Tags         locations
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Param        item_id path string true "Equipment item ID" format(uuid)
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /locations/{id}/equipment/{item_id} [delete]
func (h *LocationHandler) RemoveEquipment(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid equipment item ID format")
		return
	}

	loc, err := h.locationService.RemoveEquipment(c.Request.Context(), actor, locationID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}

// Browse godoc
// @Summary      Browse published locations
// @Description  Retrieve a paginated list of published kitchen locations
// @Tags         kitchens
// @Produce      json
// @Param        search query string false "Search by name or description"
// @Param        city query string false "Filter by city"
// @Param        state query string false "Filter by state"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]locationapp.LocationListItem}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /kitchens [get]
func (h *LocationHandler) Browse(c *gin.Context) {
	var req locationapp.LocationListFilter
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.locationService.BrowsePublished(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Locations, result.Total, result.Page, result.PageSize)
}

// GetPublished godoc
// @Summary      Get a published location
// @Description  Retrieve a published kitchen location by ID
// @Tags         kitchens
// @Produce      json
// @Param        id path string true "Location ID" format(uuid)
// @Success      200 {object} dto.Response{data=locationapp.LocationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /kitchens/{id} [get]
func (h *LocationHandler) GetPublished(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	loc, err := h.locationService.GetPublished(c.Request.Context(), locationID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loc)
}
