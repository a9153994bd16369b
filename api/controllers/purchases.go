package controllers

import (
	"net/http"
	"strings"

	"github.com/eduport/eduport-backend/api/responses"
	"github.com/eduport/eduport-backend/api/validators"
	"github.com/eduport/eduport-backend/internal/purchases"
	"github.com/eduport/eduport-backend/pkg/enums"
	pkgerrors "github.com/eduport/eduport-backend/pkg/errors"
	"github.com/eduport/eduport-backend/pkg/logger"
	pkgpagination "github.com/eduport/eduport-backend/pkg/pagination"
)

type submitPurchaseRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
}

func purchaseKindFromRoute(r *http.Request) (enums.PurchaseKind, error) {
	kind, err := enums.ParsePurchaseKind(routeParam(r, "kind"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase kind")
	}
	return kind, nil
}

func purchaseListParams(r *http.Request) (purchases.ListParams, error) {
	var params purchases.ListParams
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pkgpagination.MaxLimit)
	if err != nil {
		return params, err
	}
	params.Limit = limit
	params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))
	return params, nil
}

// PurchaseSubmit files a pending purchase request for a plan or course.
func PurchaseSubmit(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := purchaseKindFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitPurchaseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseUUIDField(body.ItemID, "item_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var purchase *purchases.PurchaseDTO
		switch kind {
		case enums.PurchaseKindPlan:
			purchase, err = svc.SubmitPlanPurchase(r.Context(), actorID, itemID)
		case enums.PurchaseKindCourse:
			purchase, err = svc.SubmitCoursePurchase(r.Context(), actorID, itemID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}

// PurchaseApprove records an approval decision on a pending purchase.
func PurchaseApprove(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseDecision(svc, logg, true)
}

// PurchaseReject records a rejection decision on a pending purchase.
func PurchaseReject(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return purchaseDecision(svc, logg, false)
}

func purchaseDecision(svc purchases.Service, logg *logger.Logger, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := purchaseKindFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchaseID, err := routeUUID(r, "purchaseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var purchase *purchases.PurchaseDTO
		if approve {
			purchase, err = svc.Approve(r.Context(), actorID, role, kind, purchaseID)
		} else {
			purchase, err = svc.Reject(r.Context(), actorID, role, kind, purchaseID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseListMine returns the caller's live entitlements for a kind.
func PurchaseListMine(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := purchaseKindFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := purchaseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMyLiveEntitlements(r.Context(), actorID, kind, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// PurchaseListMyPending returns the caller's pending purchase requests.
func PurchaseListMyPending(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := purchaseKindFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := purchaseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMyPendingRequests(r.Context(), actorID, kind, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// PurchaseListApprovals returns the approval queue visible to the actor.
func PurchaseListApprovals(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := purchaseKindFromRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := purchaseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListPendingForApprover(r.Context(), actorID, role, kind, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// PurchaseStats returns aggregate purchase and revenue rollups.
func PurchaseStats(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.GetAggregateStats(r.Context(), actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
