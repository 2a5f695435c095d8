package error

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	httpCode  int
	errorCode int
	errorMsg  string
	errorDesc string
}

func New(httpCode, errorCode int, errorMsg string, errorDesc string) *Error {
	return &Error{
		httpCode:  httpCode,
		errorCode: errorCode,
		errorMsg:  errorMsg,
		errorDesc: errorDesc,
	}

}
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return InternalServer(err.Error())
}

// ✅ 用戶端錯誤 (400 系列)
func ValidateErr(errorDesc string) *Error {
	errCode := BAD_REQUEST_BODY
	return New(http.StatusBadRequest, errCode, "bad-request/body", errorDesc)
}
func ValidatePathParamsErr(errorDesc string) *Error {
	errCode := BAD_REQUEST_PARAMS
	return New(http.StatusBadRequest, errCode, "bad-request/params", errorDesc)
}

// ✅ 伺服器內部錯誤 (500 系列)
func InternalServer(errorDesc string) *Error {
	return New(http.StatusInternalServerError, INTERNAL_ERROR, "internal-server-error", errorDesc)
}

func DatabaseError(errorDesc string) *Error {
	return New(http.StatusInternalServerError, DATABASE_ERROR, "database-error", errorDesc)
}

func ServiceUnavailable(errorDesc string) *Error {
	return New(http.StatusServiceUnavailable, SERVICE_UNAVAILABLE, "service-unavailable", errorDesc)
}

// ✅ 用戶請求錯誤 (400 系列)
func BadRequest(errorDesc string, errorCode ...int) *Error {
	errCode := BAD_REQUEST_BODY
	if len(errorCode) > 0 {
		errCode = errorCode[0]
	}
	return New(http.StatusBadRequest, errCode, "bad-request", errorDesc)
}
func BadRequestBody(errorDesc string) *Error {
	return New(http.StatusBadRequest, BAD_REQUEST_BODY, "bad-request-body", errorDesc)
}

func BadRequestParams(errorDesc string) *Error {
	return New(http.StatusBadRequest, BAD_REQUEST_PARAMS, "bad-request-params", errorDesc)
}

func BadRequestHeaders(errorDesc string) *Error {
	return New(http.StatusBadRequest, BAD_REQUEST_HEADERS, "bad-request-headers", errorDesc)
}

// ✅ 權限錯誤 (401, 403)
func Unauthorized(errorDesc string, errorCode ...int) *Error {
	errCode := UNAUTHORIZED
	if len(errorCode) > 0 {
		errCode = errorCode[0]
	}
	return New(http.StatusUnauthorized, errCode, "unauthorized", errorDesc)
}

func InvalidSession(errorDesc string) *Error {
	return New(http.StatusUnauthorized, INVALID_SESSION, "invalid-session", errorDesc)
}

func Forbidden(errorDesc string, errorCode ...int) *Error {
	errCode := FORBIDDEN
	if len(errorCode) > 0 {
		errCode = errorCode[0]
	}
	return New(http.StatusForbidden, errCode, "forbidden", errorDesc)
}

// ✅ 資源找不到 (404)
func NotFound(errorDesc string, errorCode ...int) *Error {
	errCode := NOT_FOUND
	if len(errorCode) > 0 {
		errCode = errorCode[0]
	}
	return New(http.StatusNotFound, errCode, "not-found", errorDesc)
}
func UnknownTenant(subdomain string) *Error {
	return New(http.StatusNotFound, UNKNOWN_TENANT, "unknown-tenant",
		fmt.Sprintf("tenant subdomain '%s' was not found or is not active", subdomain))
}

// ✅ 衝突 (409)
func Conflict(errorDesc string) *Error {
	return New(http.StatusConflict, CONFLICT, "conflict", errorDesc)
}

// ✅ 租戶
func TenantValidation(errorDesc string) *Error {
	return New(http.StatusBadRequest, TENANT_VALIDATION, "tenant-validation", errorDesc)
}

func TenantRequired(errorDesc string) *Error {
	return New(http.StatusBadRequest, TENANT_REQUIRED, "tenant-required", errorDesc)
}

func WrongHostForRoute(errorDesc string) *Error {
	return New(http.StatusForbidden, WRONG_HOST_FOR_ROUTE, "wrong-host-for-route", errorDesc)
}

func ProvisioningBusy(errorDesc string) *Error {
	return New(http.StatusConflict, PROVISIONING_BUSY, "provisioning-busy", errorDesc)
}

func TenantNotProvisioned(errorDesc string) *Error {
	return New(http.StatusServiceUnavailable, TENANT_NOT_PROVISIONED, "tenant-not-provisioned", errorDesc)
}

func ConnectionFailure(errorDesc string) *Error {
	return New(http.StatusServiceUnavailable, CONNECTION_FAILURE, "connection-failure", errorDesc)
}

// RoutingViolation 程式契約錯誤，一律以 500 回應
func RoutingViolation(errorDesc string) *Error {
	return New(http.StatusInternalServerError, ROUTING_VIOLATION, "routing-contract-violation", errorDesc)
}

// ProvisionFailed 依 kind 對應錯誤碼（unreachable/permission/driver/schema）
func ProvisionFailed(kind string, errorDesc string) *Error {
	code := PROVISION_UNKNOWN
	switch kind {
	case "unreachable":
		code = PROVISION_UNREACHABLE
	case "permission":
		code = PROVISION_PERMISSION
	case "driver":
		code = PROVISION_DRIVER
	case "schema":
		code = PROVISION_SCHEMA
	}
	return New(http.StatusServiceUnavailable, code, "provision-failed/"+kind, errorDesc)
}

func (e *Error) HttpCode() int {
	return e.httpCode
}

func (e *Error) ErrorCode() int {
	return e.errorCode
}
func (e *Error) ErrorDesc() string {
	return e.errorDesc
}
func (e *Error) Error() string {
	return e.errorMsg
}
func MapHttpStatusToError(status int, desc string) *Error {
	switch status {
	case http.StatusBadRequest:
		return BadRequest(desc)
	case http.StatusUnauthorized:
		return Unauthorized(desc)
	case http.StatusForbidden:
		return Forbidden(desc)
	case http.StatusNotFound:
		return NotFound(desc)
	case http.StatusInternalServerError:
		return InternalServer(desc)
	case http.StatusServiceUnavailable:
		return ServiceUnavailable(desc)
	case http.StatusConflict:
		return Conflict(desc)
	default:
		return InternalServer(desc)
	}
}
