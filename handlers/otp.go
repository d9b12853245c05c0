package handlers

import (
	"net/http"

	"github.com/kevinaaaquil/intelliread/auth"
	"github.com/kevinaaaquil/intelliread/middleware"
)

type OTPHandler struct {
	Ledger *auth.Ledger
}

type OTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type VerifyResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	UserType string `json:"userType"`
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Ledger.Issue(r.Context(), req.Email); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeOK(w, "Verification code sent to your email")
}

func (h *OTPHandler) Resend(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Ledger.Resend(r.Context(), req.Email); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeOK(w, "A new verification code has been sent")
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	owner, err := h.Ledger.Verify(r.Context(), req.Email, req.OTP)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, VerifyResponse{Success: true, Message: "Code verified", UserType: owner})
}

func (h *OTPHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Ledger.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	writeOK(w, "Password reset successfully")
}
