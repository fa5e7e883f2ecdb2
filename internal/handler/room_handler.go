package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/application"
	"github.com/innhub/service-reservation/internal/platform/auth"
	"github.com/innhub/service-reservation/internal/platform/middleware"
	"github.com/innhub/service-reservation/internal/platform/response"
)

// RoomHandler serves the room catalog and availability queries.
type RoomHandler struct {
	rooms        *application.RoomTypeService
	availability *application.AvailabilityService
}

func NewRoomHandler(rooms *application.RoomTypeService, availability *application.AvailabilityService) *RoomHandler {
	return &RoomHandler{rooms: rooms, availability: availability}
}

// RegisterRoutes registers room routes. Reads are public; catalog changes
// need a staff token.
func (h *RoomHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	staffOnly := []gin.HandlerFunc{
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleAdmin, auth.RoleStaff),
	}

	rooms := r.Group("/rooms")
	{
		rooms.GET("", h.ListRooms)
		rooms.GET("/available", h.AvailableRooms)
		rooms.GET("/:id", h.GetRoom)
		rooms.GET("/:id/availability", h.RoomAvailability)
		rooms.POST("", append(staffOnly, h.CreateRoom)...)
		rooms.PATCH("/:id", append(staffOnly, h.UpdateRoom)...)
		rooms.DELETE("/:id", append(staffOnly, h.DeleteRoom)...)
	}
}

// AvailableRooms handles GET /rooms/available?category=&checkIn=&checkOut=.
func (h *RoomHandler) AvailableRooms(c *gin.Context) {
	stay, err := application.ParseStay(c.Query("checkIn"), c.Query("checkOut"))
	if err != nil {
		response.Error(c, err)
		return
	}

	var category *uuid.UUID
	if raw := c.Query("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid category")
			return
		}
		category = &id
	}

	rooms, err := h.availability.ListAvailable(c.Request.Context(), category, stay)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": rooms, "count": len(rooms)})
}

// RoomAvailability handles GET /rooms/:id/availability?checkIn=&checkOut=.
func (h *RoomHandler) RoomAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room ID")
		return
	}
	stay, err := application.ParseStay(c.Query("checkIn"), c.Query("checkOut"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.availability.Check(c.Request.Context(), id, stay)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListRoomTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": rooms, "count": len(rooms)})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room ID")
		return
	}

	result, err := h.rooms.GetRoomType(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req application.CreateRoomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.rooms.CreateRoomType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room ID")
		return
	}

	var req application.UpdateRoomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.rooms.UpdateRoomType(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room ID")
		return
	}

	if err := h.rooms.DeleteRoomType(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "room type deleted"})
}
