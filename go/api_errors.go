package shopserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	catalogapp "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/application"
	catalogdomain "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	ordersapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	usersapp "github.com/Apurer/go-gin-shop-api/internal/domains/users/application"
	userports "github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"
	apierrors "github.com/Apurer/go-gin-shop-api/internal/shared/errors"
)

var responder = apierrors.NewChainedResponder("", mapOrderError, mapCatalogError, mapUserError)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondServiceError renders application errors as problem details.
func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

// respondBindError reports a request body that gin could not bind.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe)] = fieldMessage(fe)
		}
		respondProblem(c, apierrors.NewValidationProblem(fields))
		return
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		respondProblem(c, apierrors.ErrBadRequest.WithDetail("request body is not valid JSON"))
	case errors.As(err, &typeErr):
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(fmt.Sprintf("field %q has the wrong type", typeErr.Field)))
	default:
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
	}
}

// fieldPath turns "PlaceOrder.Items[0].Quantity" into "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	parts := strings.Split(ns, ".")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToLower(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	var stockErr *catalogdomain.InsufficientStockError
	var transitionErr *orderdomain.TransitionError
	switch {
	case errors.As(err, &stockErr):
		return apierrors.NewInsufficientStockProblem(stockErr.ProductID, stockErr.ProductName, stockErr.Requested, stockErr.Available), true
	case errors.Is(err, catalogdomain.ErrInsufficientStock):
		return apierrors.ErrInsufficientStock.WithDetail(err.Error()), true
	case errors.As(err, &transitionErr):
		return apierrors.ErrInvalidTransition.WithDetail(err.Error()).WithExtension("status", string(transitionErr.From)), true
	case errors.Is(err, orderdomain.ErrInvalidTransition):
		return apierrors.ErrInvalidTransition.WithDetail(err.Error()), true
	case errors.Is(err, orderports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithExtension("resourceType", "order"), true
	case errors.Is(err, orderports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithExtension("retryable", false), true
	case errors.Is(err, orderports.ErrConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithExtension("retryable", true), true
	case errors.Is(err, ordersapp.ErrInvalidInput), errors.Is(err, orderdomain.ErrInvalidStatus):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapCatalogError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, catalogports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithExtension("resourceType", "product"), true
	case errors.Is(err, catalogapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapUserError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, userports.ErrUnauthenticated), errors.Is(err, usersapp.ErrAuthentication):
		return apierrors.ErrUnauthorized.WithDetail(unauthenticatedDetail(err)), true
	case errors.Is(err, userports.ErrUsernameTaken):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, userports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).WithExtension("resourceType", "user"), true
	case errors.Is(err, usersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// unauthenticatedDetail keeps token parser internals out of responses.
func unauthenticatedDetail(err error) string {
	if errors.Is(err, userports.ErrInvalidCredentials) {
		return userports.ErrInvalidCredentials.Error()
	}
	return "invalid or expired credentials"
}
