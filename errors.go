package rest

import (
	"errors"
	"net/http"

	goerrors "github.com/go-errors/errors"
	"github.com/labstack/echo/v4"
	"github.com/xompass/vsaas-dal/dataaccess"
	"github.com/xompass/vsaas-dal/database"
	"github.com/xompass/vsaas-dal/http_errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

const (
	MODEL_NOT_FOUND         = "MODEL_NOT_FOUND"
	PARENT_ID_MISSING       = "PARENT_ID_MISSING"
	REFERENCE_NOT_FOUND     = "REFERENCE_NOT_FOUND"
	PARENT_RECORD_NOT_FOUND = "PARENT_RECORD_NOT_FOUND"
	CHILD_CREATION_FAILED   = "CHILD_CREATION_FAILED"
	RECORD_NOT_FOUND        = "RECORD_NOT_FOUND"
	INVALID_WHERE           = "INVALID_WHERE"
	INVALID_UPDATE          = "INVALID_UPDATE"
	INVALID_BODY            = "INVALID_BODY"
	INVALID_PARAMETER       = "INVALID_PARAMETER"
	RATE_LIMIT_EXCEEDED     = "RATE_LIMIT_EXCEEDED"
)

// Error codes for store errors
const (
	MONGO_NO_DOCUMENTS_FOUND = "MONGO_NO_DOCUMENTS_FOUND"
	MONGO_DUPLICATE_KEY      = "MONGO_DUPLICATE_KEY"
	MONGO_OPERATION_FAILED   = "MONGO_OPERATION_FAILED"
	MONGO_CONNECTION_ERROR   = "MONGO_CONNECTION_ERROR"
	MONGO_VALIDATION_ERROR   = "MONGO_VALIDATION_ERROR"
)

// MapError turns an engine or store error into an error response.
func MapError(err error) *http_errors.ErrorResponse {
	if err == nil {
		return nil
	}

	var response *http_errors.ErrorResponse
	if errors.As(err, &response) {
		return response
	}

	switch {
	case errors.Is(err, database.ErrModelNotFound):
		return http_errors.NotFoundErrorWithCode(MODEL_NOT_FOUND, "model not found")
	case errors.Is(err, dataaccess.ErrParentRecordNotFound):
		return http_errors.NotFoundErrorWithCode(PARENT_RECORD_NOT_FOUND, "parent record not found")
	case errors.Is(err, dataaccess.ErrParentIDMissing):
		return http_errors.BadRequestErrorWithCode(PARENT_ID_MISSING, "parent id is required")
	case errors.Is(err, dataaccess.ErrReferenceNotFound):
		return http_errors.BadRequestErrorWithCode(REFERENCE_NOT_FOUND, "the field is not a reference of the model")
	case errors.Is(err, dataaccess.ErrChildCreationFailed):
		return http_errors.InternalServerErrorWithCode(CHILD_CREATION_FAILED, "the child record could not be created")
	case errors.Is(err, database.ErrInvalidWhere):
		return http_errors.BadRequestErrorWithCode(INVALID_WHERE, err.Error())
	case errors.Is(err, dataaccess.ErrInvalidUpdate):
		return http_errors.BadRequestErrorWithCode(INVALID_UPDATE, err.Error())
	}

	return mapMongoError(err)
}

// mapMongoError maps MongoDB errors to standardized http_errors
func mapMongoError(err error) *http_errors.ErrorResponse {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return http_errors.NotFoundErrorWithCode(MONGO_NO_DOCUMENTS_FOUND, "document not found")
	}

	// Handle MongoDB write errors (duplicates, validation, etc.)
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, writeError := range writeErr.WriteErrors {
			switch writeError.Code {
			case 11000, 11001: // Duplicate key errors
				return http_errors.ConflictErrorWithCode(MONGO_DUPLICATE_KEY, "duplicate key error: "+writeError.Message)
			case 121: // Document validation failure
				return http_errors.BadRequestErrorWithCode(MONGO_VALIDATION_ERROR, "validation error: "+writeError.Message)
			default:
				return http_errors.BadRequestErrorWithCode(MONGO_OPERATION_FAILED, "write operation failed: "+writeError.Message)
			}
		}
	}

	var bulkWriteErr mongo.BulkWriteException
	if errors.As(err, &bulkWriteErr) {
		for _, writeError := range bulkWriteErr.WriteErrors {
			if writeError.Code == 11000 || writeError.Code == 11001 {
				return http_errors.ConflictErrorWithCode(MONGO_DUPLICATE_KEY, "duplicate key error: "+writeError.Message)
			}
		}
		return http_errors.BadRequestErrorWithCode(MONGO_OPERATION_FAILED, "bulk write operation failed: "+err.Error())
	}

	var commandErr mongo.CommandError
	if errors.As(err, &commandErr) {
		switch commandErr.Code {
		case 11000, 11001: // Duplicate key
			return http_errors.ConflictErrorWithCode(MONGO_DUPLICATE_KEY, "duplicate key error: "+commandErr.Message)
		case 121: // Document validation failure
			return http_errors.BadRequestErrorWithCode(MONGO_VALIDATION_ERROR, "validation error: "+commandErr.Message)
		default:
			return http_errors.BadRequestErrorWithCode(MONGO_OPERATION_FAILED, "command failed: "+commandErr.Message)
		}
	}

	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return http_errors.InternalServerErrorWithCode(MONGO_CONNECTION_ERROR, "database connection error")
	}

	return http_errors.InternalServerErrorWithCode(MONGO_OPERATION_FAILED, "database operation failed: "+err.Error())
}

func (receiver *RestApp) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var response *http_errors.ErrorResponse

	var httpErr *echo.HTTPError
	var paramErrors ParamErrors
	switch {
	case errors.As(err, &paramErrors):
		response = http_errors.BadRequestErrorWithCode(INVALID_PARAMETER, "Invalid parameters", paramErrors)
	case errors.As(err, &httpErr):
		response = http_errors.NewErrorResponse(httpErr.Code, http.StatusText(httpErr.Code))
		if message, ok := httpErr.Message.(string); ok {
			response.Message = message
		}
	default:
		response = MapError(err)
	}

	if response.Code >= http.StatusInternalServerError {
		var stack *goerrors.Error
		if errors.As(err, &stack) {
			receiver.Errorf("%s %s: %s", c.Request().Method, c.Request().URL.Path, stack.ErrorStack())
		} else {
			receiver.Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(response.Code)
	} else {
		err = c.JSON(response.Code, response)
	}
	if err != nil {
		receiver.Errorf("cannot send error response: %v", err)
	}
}
