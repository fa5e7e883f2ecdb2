package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/application"
	"github.com/innhub/service-reservation/internal/platform/auth"
	"github.com/innhub/service-reservation/internal/platform/middleware"
	"github.com/innhub/service-reservation/internal/platform/response"
)

// AdminHandler handles back-office requests: booking oversight, stuck
// restorations and ledger reconciliation.
type AdminHandler struct {
	bookings    *application.BookingService
	compensator *application.Compensator
	worker      *application.RestorationWorker
	reconciler  *application.ReconciliationService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	bookings *application.BookingService,
	compensator *application.Compensator,
	worker *application.RestorationWorker,
	reconciler *application.ReconciliationService,
) *AdminHandler {
	return &AdminHandler{
		bookings:    bookings,
		compensator: compensator,
		worker:      worker,
		reconciler:  reconciler,
	}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	staffRole := middleware.RequireRole(auth.RoleAdmin, auth.RoleStaff)

	admin := r.Group("/admin")
	admin.Use(authMW, staffRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.GET("/restorations", h.ListRestorations)
		admin.POST("/restorations/retry", h.RetryRestorations)
		admin.POST("/restorations/:id/requeue", h.RequeueRestoration)
		admin.POST("/room-types/:id/reconcile", h.Reconcile)
	}
}

// ListBookings handles GET /admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)
	query := application.BookingQuery{
		Status:     c.Query("status"),
		RoomTypeID: c.Query("roomTypeId"),
	}

	result, err := h.bookings.ListAllBookings(c.Request.Context(), query, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, *result)
}

// BookingStats handles GET /admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ListRestorations handles GET /admin/restorations?status=.
func (h *AdminHandler) ListRestorations(c *gin.Context) {
	tasks, err := h.compensator.ListTasks(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, tasks)
}

// RetryRestorations handles POST /admin/restorations/retry.
func (h *AdminHandler) RetryRestorations(c *gin.Context) {
	report, err := h.worker.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}

// RequeueRestoration handles POST /admin/restorations/:id/requeue.
func (h *AdminHandler) RequeueRestoration(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid task ID")
		return
	}

	task, err := h.compensator.Requeue(c.Request.Context(), taskID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, task)
}

// Reconcile handles POST /admin/room-types/:id/reconcile?repair=true.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	roomTypeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room type ID")
		return
	}
	repair, _ := strconv.ParseBool(c.DefaultQuery("repair", "false"))

	report, err := h.reconciler.Reconcile(c.Request.Context(), roomTypeID, repair)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}
