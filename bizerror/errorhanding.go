package bizerror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"periodico/misc"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

const (
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
)

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = errors.New(fmt.Sprintf("%s", ret))
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

func HandleError(c *gin.Context, err error) {
	logrus.Error(err)

	genericErr := err
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		genericErr = ginErr.Err
	}

	if bizErr, ok := genericErr.(BizError); ok {
		respond := bizErr.Respond()
		c.JSON(respond.Status, &misc.ErrorBody{Code: respond.Code, Message: respond.Message, Data: respond.Data})
		c.Abort()
		return
	}

	// bad request: io.EOF (no body)
	if errors.Is(genericErr, io.EOF) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.body_not_found", Message: "body not found"})
		c.Abort()
		return
	}
	// bad request: json syntax error
	if syntaxErr, ok := genericErr.(*json.SyntaxError); ok {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.invalid_body_format", Message: "invalid body format", Data: syntaxErr.Error()})
		c.Abort()
		return
	}
	// validation failed
	if validationErr, ok := genericErr.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.validation_failed", Message: "validation failed", Data: validationErr.Error()})
		c.Abort()
		return
	}

	if errors.Is(genericErr, ErrUnauthenticated) || errors.Is(genericErr, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, &misc.ErrorBody{Code: "common.unauthenticated", Message: "unauthenticated"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrForbidden) {
		c.JSON(http.StatusForbidden, &misc.ErrorBody{Code: "security.forbidden", Message: "access forbidden"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrUsernameTaken) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "account.username_taken", Message: "username is already taken"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrReferentialIntegrity) || isForeignKeyViolation(genericErr) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "common.referential_integrity", Message: "referential integrity violated"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrTooManyRequests) {
		c.JSON(http.StatusTooManyRequests, &misc.ErrorBody{Code: "common.too_many_requests", Message: "too many requests"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrDependencyFailed) {
		c.JSON(http.StatusBadGateway, &misc.ErrorBody{Code: "common.dependency_failed", Message: "dependency failed"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, gorm.ErrRecordNotFound) || errors.Is(genericErr, ErrNotFound) {
		c.JSON(http.StatusNotFound, &misc.ErrorBody{Code: "common.record_not_found", Message: "record not found"})
		c.Abort()
		return
	}

	c.JSON(http.StatusInternalServerError, &misc.ErrorBody{Code: "common.internal_server_error", Message: err.Error()})
	c.Abort()
}

func isForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrRowIsReferenced || mysqlErr.Number == mysqlErrNoReferencedRow
	}
	return false
}
