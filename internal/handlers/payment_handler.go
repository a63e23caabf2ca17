package handlers

import (
	"greenride/internal/services"
	"greenride/internal/utils"
	"greenride/internal/validators"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	methodService      services.PaymentMethodService
	paymentService     services.PaymentService
	transactionService services.TransactionService
	historyLimit       int
}

func NewPaymentHandler(
	methodService services.PaymentMethodService,
	paymentService services.PaymentService,
	transactionService services.TransactionService,
	historyLimit int,
) *PaymentHandler {
	if historyLimit <= 0 {
		historyLimit = utils.TransactionHistoryLimit
	}
	return &PaymentHandler{
		methodService:      methodService,
		paymentService:     paymentService,
		transactionService: transactionService,
		historyLimit:       historyLimit,
	}
}

func (h *PaymentHandler) AddPaymentMethod(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.AddPaymentMethodRequest
	if !bindJSON(c, &request) {
		return
	}

	method, err := h.methodService.AddMethod(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, "Payment method added successfully", method)
}

func (h *PaymentHandler) ListPaymentMethods(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	methods, err := h.methodService.ListMethods(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Payment methods retrieved successfully", methods, &utils.Meta{Count: len(methods)})
}

func (h *PaymentHandler) SetDefaultPaymentMethod(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	methodID, ok := pathObjectID(c, "id", "payment method")
	if !ok {
		return
	}

	method, err := h.methodService.SetDefault(c.Request.Context(), userID, methodID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Default payment method updated", method)
}

func (h *PaymentHandler) DeletePaymentMethod(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	methodID, ok := pathObjectID(c, "id", "payment method")
	if !ok {
		return
	}

	if err := h.methodService.DeleteMethod(c.Request.Context(), userID, methodID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payment method deleted successfully", nil)
}

func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.ProcessPaymentRequest
	if !bindJSON(c, &request) {
		return
	}

	receipt, err := h.paymentService.ProcessRidePayment(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payment processed successfully", receipt)
}

func (h *PaymentHandler) AwardEcoBonus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request validators.EcoBonusRequest
	if !bindJSON(c, &request) {
		return
	}

	result, err := h.paymentService.AwardEcoBonus(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, "Eco bonus awarded successfully", result)
}

func (h *PaymentHandler) GetTransactionHistory(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, h.historyLimit)
	txns, pagination, err := h.transactionService.GetTransactionHistory(c.Request.Context(), userID, params)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Transactions retrieved successfully", txns, &utils.Meta{
		Pagination: pagination,
		Total:      pagination.Total,
		Count:      len(txns),
	})
}
